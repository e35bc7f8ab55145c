package ics

import (
	"errors"
	"os"
	"path/filepath"
)

// WriteFile replaces path with data, creating parent directories as
// needed. The content goes to a temp file in the same directory first and
// is renamed over the target, so readers never observe a partial calendar.
// Concurrent writers are not coordinated; the last rename wins.
func WriteFile(path string, data []byte) error {
	if path == "" {
		return errors.New("output path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calendar-*.ics.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// CreateTemp uses 0600; the calendar is meant to be published.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
