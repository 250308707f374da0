// Package dotdir resolves the .memhooks/ directory that holds config.toml
// and the running bridge's state file.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the memhooks directory.
	dirName = ".memhooks"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path of the .memhooks/ directory to use.
// Order of precedence is as follows:
//  1. Provided override (created when missing)
//  2. Local ./.memhooks/ dir
//  3. Home ~/.memhooks/ dir
//
// When none applies, Target returns "" and callers fall back to defaults.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		return m.ensure(overrideDir)
	}

	if dir, ok := m.existing(); ok {
		return filepath.Abs(dir)
	}

	return "", nil
}

// Ensure is Target, except that ~/.memhooks/ is created when no directory
// exists yet. Commands that write state use it.
func (m *Manager) Ensure(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil || dir != "" {
		return dir, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return m.ensure(filepath.Join(home, dirName))
}

func (m *Manager) ensure(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating memhooks directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

// existing returns the first of ./.memhooks and ~/.memhooks that exists.
func (m *Manager) existing() (string, bool) {
	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, dirName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, dirName))
	}

	for _, dir := range candidates {
		info, err := os.Stat(dir)
		if err == nil && info.IsDir() {
			return dir, true
		}
	}
	return "", false
}
