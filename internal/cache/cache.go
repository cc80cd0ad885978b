package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Cache struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	c := &Cache{readDB: readDB, writeDB: writeDB}
	if err := c.init(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) init() error {
	_, err := c.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS responses (
			key        TEXT PRIMARY KEY,
			kind       TEXT NOT NULL,
			body       BLOB NOT NULL,
			fetched_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_responses_kind ON responses(kind);
		CREATE INDEX IF NOT EXISTS idx_responses_fetched ON responses(fetched_at);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		errs = append(errs, c.readDB.Close())
	}
	if c.writeDB != nil {
		errs = append(errs, c.writeDB.Close())
	}
	return errors.Join(errs...)
}

// PutResponse stores body under key, replacing any previous value.
func (c *Cache) PutResponse(r Response) error {
	_, err := c.writeDB.Exec(`
		INSERT INTO responses (key, kind, body, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			kind = excluded.kind,
			body = excluded.body,
			fetched_at = excluded.fetched_at
	`, r.Key, r.Kind, r.Body, r.FetchedAt.UTC())
	if err != nil {
		return fmt.Errorf("storing response %s: %w", r.Key, err)
	}
	return nil
}

// GetResponse loads the stored response for key. A missing key returns
// ok=false and a nil error.
func (c *Cache) GetResponse(key string) (Response, bool, error) {
	r := Response{Key: key}
	err := c.readDB.QueryRow(
		"SELECT kind, body, fetched_at FROM responses WHERE key = ?", key,
	).Scan(&r.Kind, &r.Body, &r.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Response{}, false, nil
	}
	if err != nil {
		return Response{}, false, fmt.Errorf("reading response %s: %w", key, err)
	}
	return r, true, nil
}

// DeleteResponse removes key if present.
func (c *Cache) DeleteResponse(key string) error {
	_, err := c.writeDB.Exec("DELETE FROM responses WHERE key = ?", key)
	return err
}

// Prune deletes responses fetched more than olderThan ago and vacuums.
func (c *Cache) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC()
	res, err := c.writeDB.Exec("DELETE FROM responses WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning responses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if _, err := c.writeDB.Exec("VACUUM"); err != nil {
			return n, fmt.Errorf("vacuuming: %w", err)
		}
	}
	return n, nil
}

// Stats returns the number of stored responses and the database file size.
func (c *Cache) Stats(dbPath string) (int, int64, error) {
	var count int
	if err := c.readDB.QueryRow("SELECT COUNT(*) FROM responses").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting responses: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, fmt.Errorf("stat %s: %w", dbPath, err)
	}
	return count, info.Size(), nil
}

// KindCounts returns the number of stored responses per kind.
func (c *Cache) KindCounts() (map[string]int, error) {
	rows, err := c.readDB.Query("SELECT kind, COUNT(*) FROM responses GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("counting kinds: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scanning kind count: %w", err)
		}
		out[kind] = n
	}
	return out, rows.Err()
}

// GetMeta returns the value stored under key, or "" with ok=false.
func (c *Cache) GetMeta(key string) (string, bool, error) {
	var value string
	err := c.readDB.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading meta %s: %w", key, err)
	}
	return value, true, nil
}

func (c *Cache) SetMeta(key, value string) error {
	_, err := c.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing meta %s: %w", key, err)
	}
	return nil
}

func (c *Cache) DeleteMeta(key string) error {
	_, err := c.writeDB.Exec("DELETE FROM meta WHERE key = ?", key)
	return err
}

// SetLastOpened records the current time as the last session start.
func (c *Cache) SetLastOpened() error {
	return c.SetMeta("last_opened", time.Now().Format(time.RFC3339))
}

// GetLastOpened returns the previous session start.
func (c *Cache) GetLastOpened() (time.Time, error) {
	v, ok, err := c.GetMeta("last_opened")
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, fmt.Errorf("no previous session")
	}
	return time.Parse(time.RFC3339, v)
}
