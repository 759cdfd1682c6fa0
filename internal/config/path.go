// Package config loads smsfin settings: rule overlays, .env files and file locations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDatabasePath is used when database.path is not configured.
const DefaultDatabasePath = "~/.local/share/smsfin/smsfin.db"

// ConfigDir returns the directory searched for config.yaml.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "smsfin"), nil
}

// ExpandPath substitutes $VAR references and resolves a leading ~ to the
// home directory. Paths that cannot be resolved are returned unchanged.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}
