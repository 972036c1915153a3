package render

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Well-known Chrome and Chromium install locations, checked in order.
var systemChromePaths = []string{
	"/usr/bin/google-chrome-stable",
	"/usr/bin/google-chrome",
	"/usr/bin/chromium-browser",
	"/usr/bin/chromium",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

// FindChrome returns the browser binary to launch. An explicit override
// wins, then CHROME_PATH, then Playwright's cache (headless shell builds
// first), then the usual system locations. An empty result leaves the
// choice to chromedp's own lookup.
func FindChrome(override string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv("CHROME_PATH"); env != "" {
		return env
	}

	candidates := append(playwrightChromes(playwrightCacheDir()), systemChromePaths...)
	for _, p := range candidates {
		if fileExists(p) {
			return p
		}
	}
	return ""
}

func playwrightCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "/root"
	}
	return filepath.Join(home, ".cache", "ms-playwright")
}

// playwrightChromes lists browser binaries under a Playwright cache,
// newest build first within each flavour.
func playwrightChromes(cacheDir string) []string {
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		return nil
	}

	var shells, full []string
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasPrefix(name, "chromium_headless_shell"):
			shells = append(shells, name)
		case strings.HasPrefix(name, "chromium"):
			full = append(full, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(shells)))
	sort.Sort(sort.Reverse(sort.StringSlice(full)))

	var out []string
	for _, name := range shells {
		out = append(out, filepath.Join(cacheDir, name, "chrome-linux", "headless_shell"))
	}
	for _, name := range full {
		out = append(out, filepath.Join(cacheDir, name, "chrome-linux", "chrome"))
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
