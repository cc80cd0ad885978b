package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *Cache {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleResponses() []Response {
	now := time.Now()
	return []Response{
		{Key: "pokemonListAll", Kind: "pokemonListAll", Body: []byte(`[{"id":1,"name":"bulbasaur"}]`), FetchedAt: now.Add(-1 * time.Hour)},
		{Key: "type:fire", Kind: "type", Body: []byte(`[4,5,6]`), FetchedAt: now.Add(-2 * time.Hour)},
		{Key: "pokemon:25", Kind: "pokemon", Body: []byte(`{"id":25}`), FetchedAt: now.Add(-48 * time.Hour)},
	}
}

func seed(t *testing.T, db *Cache) {
	t.Helper()
	for _, r := range sampleResponses() {
		if err := db.PutResponse(r); err != nil {
			t.Fatalf("put %s: %v", r.Key, err)
		}
	}
}

func TestPutAndGetResponse(t *testing.T) {
	db := testDB(t)
	seed(t, db)

	got, ok, err := db.GetResponse("type:fire")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected stored response")
	}
	if string(got.Body) != "[4,5,6]" {
		t.Errorf("unexpected body %q", got.Body)
	}
	if got.Kind != "type" {
		t.Errorf("expected kind type, got %q", got.Kind)
	}
	if time.Since(got.FetchedAt) < time.Hour || time.Since(got.FetchedAt) > 3*time.Hour {
		t.Errorf("fetched_at not preserved: %v", got.FetchedAt)
	}
}

func TestPutResponseReplacesExisting(t *testing.T) {
	db := testDB(t)
	seed(t, db)

	updated := Response{Key: "type:fire", Kind: "type", Body: []byte(`[4]`), FetchedAt: time.Now()}
	if err := db.PutResponse(updated); err != nil {
		t.Fatalf("second put: %v", err)
	}

	got, _, err := db.GetResponse("type:fire")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Body) != "[4]" {
		t.Errorf("expected replaced body, got %q", got.Body)
	}
}

func TestGetResponseMissing(t *testing.T) {
	db := testDB(t)
	_, ok, err := db.GetResponse("type:ice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected missing response")
	}
}

func TestDeleteResponse(t *testing.T) {
	db := testDB(t)
	seed(t, db)

	if err := db.DeleteResponse("pokemon:25"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := db.GetResponse("pokemon:25"); ok {
		t.Error("expected response to be gone")
	}
}

func TestPruneDeletesOldResponses(t *testing.T) {
	db := testDB(t)
	seed(t, db)

	deleted, err := db.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
	if _, ok, _ := db.GetResponse("pokemon:25"); ok {
		t.Error("old response survived prune")
	}
	if _, ok, _ := db.GetResponse("type:fire"); !ok {
		t.Error("recent response was pruned")
	}
}

func TestPruneNothingToDelete(t *testing.T) {
	db := testDB(t)
	seed(t, db)

	deleted, err := db.Prune(365 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected 0 deleted, got %d", deleted)
	}
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "stats.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	seed(t, db)

	count, size, err := db.Stats(dbPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 responses, got %d", count)
	}
	info, _ := os.Stat(dbPath)
	if size != info.Size() || size == 0 {
		t.Errorf("expected size %d, got %d", info.Size(), size)
	}
}

func TestKindCounts(t *testing.T) {
	db := testDB(t)
	seed(t, db)
	if err := db.PutResponse(Response{Key: "type:water", Kind: "type", Body: []byte(`[]`), FetchedAt: time.Now()}); err != nil {
		t.Fatalf("put: %v", err)
	}

	counts, err := db.KindCounts()
	if err != nil {
		t.Fatalf("kind counts: %v", err)
	}
	if counts["type"] != 2 || counts["pokemon"] != 1 || counts["pokemonListAll"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestMeta(t *testing.T) {
	db := testDB(t)

	if _, ok, err := db.GetMeta("pokemon:favorites"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := db.SetMeta("pokemon:favorites", "[1,4]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.SetMeta("pokemon:favorites", "[1,4,7]"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := db.GetMeta("pokemon:favorites")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if v != "[1,4,7]" {
		t.Errorf("expected overwritten value, got %q", v)
	}

	if err := db.DeleteMeta("pokemon:favorites"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := db.GetMeta("pokemon:favorites"); ok {
		t.Error("expected key deleted")
	}
}

func TestLastOpened(t *testing.T) {
	db := testDB(t)

	if _, err := db.GetLastOpened(); err == nil {
		t.Error("expected error before first open")
	}

	db.SetLastOpened()
	got, err := db.GetLastOpened()
	if err != nil {
		t.Fatalf("get last opened: %v", err)
	}
	if time.Since(got) > time.Minute {
		t.Errorf("last opened too old: %v", got)
	}
}
