// Package env provides environment variable loading from .env files,
// so sensitive endpoint URLs and Basic Auth credentials can live in a
// gitignored file instead of the fleet YAML itself (the YAML references
// them as ${VAR} and config.Load expands them).
package env

import (
	"os"
	"strings"
)

// Load reads KEY=VALUE pairs from a .env file in the current working
// directory and sets them with os.Setenv. Empty lines and #-comments
// are skipped; values may be single- or double-quoted (quotes are
// stripped). A missing .env file is not an error — the deployment
// environment's variables are simply used as-is.
func Load() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		os.Setenv(key, value)
	}
}
