// Package browser opens artwork and API links in the system browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// launch starts a detached process; tests replace it.
var launch = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Command returns the program and arguments that open rawURL on goos.
func Command(goos, rawURL string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{rawURL}
	case "windows":
		// rundll32 instead of cmd /c start avoids shell interpretation
		return "rundll32", []string{"url.dll,FileProtocolHandler", rawURL}
	default:
		return "xdg-open", []string{rawURL}
	}
}

func Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open URL with scheme %q (only http/https allowed)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("refusing to open URL without a host: %q", rawURL)
	}

	name, args := Command(runtime.GOOS, rawURL)
	if err := launch(name, args...); err != nil {
		return fmt.Errorf("opening %s: %w", rawURL, err)
	}
	return nil
}
