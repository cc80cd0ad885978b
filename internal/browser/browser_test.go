package browser

import (
	"errors"
	"testing"
)

func stubLaunch(t *testing.T, err error) *[]string {
	t.Helper()
	var calls []string
	orig := launch
	launch = func(name string, args ...string) error {
		calls = append(calls, name)
		return err
	}
	t.Cleanup(func() { launch = orig })
	return &calls
}

func TestOpenRejectsNonHTTP(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://raw.githubusercontent.com/PokeAPI/sprites/master/25.png", false},
		{"http://example.com", false},
		{"file:///etc/passwd", true},
		{"javascript:alert(1)", true},
		{"ftp://example.com", true},
		{"https://", true},
		{"", true},
	}

	for _, tt := range tests {
		calls := stubLaunch(t, nil)
		err := Open(tt.url)
		if tt.wantErr && err == nil {
			t.Errorf("Open(%q): expected error, got nil", tt.url)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("Open(%q): unexpected error: %v", tt.url, err)
		}
		if tt.wantErr && len(*calls) != 0 {
			t.Errorf("Open(%q): launched %v for a rejected URL", tt.url, *calls)
		}
	}
}

func TestOpenReportsLaunchFailure(t *testing.T) {
	stubLaunch(t, errors.New("no display"))
	if err := Open("https://pokeapi.co"); err == nil {
		t.Error("expected launch error to be returned")
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		goos string
		want string
		args int
	}{
		{"darwin", "open", 1},
		{"linux", "xdg-open", 1},
		{"freebsd", "xdg-open", 1},
		{"windows", "rundll32", 2},
	}
	for _, tt := range tests {
		name, args := Command(tt.goos, "https://pokeapi.co")
		if name != tt.want || len(args) != tt.args {
			t.Errorf("Command(%q) = %s %v, want %s with %d args", tt.goos, name, args, tt.want, tt.args)
		}
		if args[len(args)-1] != "https://pokeapi.co" {
			t.Errorf("Command(%q): url not last argument: %v", tt.goos, args)
		}
	}
}
