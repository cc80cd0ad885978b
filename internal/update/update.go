package update

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// ReleasesURL is the latest-release endpoint of the project repository.
const ReleasesURL = "https://api.github.com/repos/MartinaKostic/pokemon-explorer-app/releases/latest"

// Result holds the outcome of a version check.
type Result struct {
	LatestVersion string
	URL           string
}

type ghRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Check queries url (ReleasesURL when empty) and reports a release newer
// than currentVersion. Returns nil when up to date or on any error.
func Check(ctx context.Context, url, currentVersion string) *Result {
	res, err := Latest(ctx, url)
	if err != nil || !Newer(res.LatestVersion, currentVersion) {
		return nil
	}
	return res
}

// Latest fetches the newest published release.
func Latest(ctx context.Context, url string) (*Result, error) {
	if url == "" {
		url = ReleasesURL
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release check: %s", resp.Status)
	}

	var release ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}
	latest := strings.TrimPrefix(release.TagName, "v")
	if latest == "" {
		return nil, fmt.Errorf("release has no tag")
	}
	return &Result{LatestVersion: latest, URL: release.HTMLURL}, nil
}

// Newer reports whether latest is a higher dotted version than current.
// Development builds never report an update.
func Newer(latest, current string) bool {
	current = strings.TrimPrefix(current, "v")
	if latest == "" || current == "" || current == "dev" {
		return false
	}
	l, c := versionParts(latest), versionParts(current)
	for i := 0; i < max(len(l), len(c)); i++ {
		var a, b int
		if i < len(l) {
			a = l[i]
		}
		if i < len(c) {
			b = c[i]
		}
		if a != b {
			return a > b
		}
	}
	return false
}

// versionParts reads "1.2.3-rc1" as [1 2 3]; pre-release suffixes are ignored.
func versionParts(v string) []int {
	v, _, _ = strings.Cut(v, "-")
	fields := strings.Split(v, ".")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			break
		}
		out = append(out, n)
	}
	return out
}
