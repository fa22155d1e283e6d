// Package msgfile finds the message file and makes sure it exists.
package msgfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// EnvVar overrides the default message file location.
	EnvVar = "MOTD_FILE"
	// DefaultName is the file name used inside the user config dir.
	DefaultName = "motd.conf"
)

// Path resolves the message file location: override first, then $MOTD_FILE,
// then DefaultName in the user config directory.
func Path(override string) string {
	if override != "" {
		return override
	}
	if p := os.Getenv(EnvVar); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultName
	}
	return filepath.Join(dir, DefaultName)
}

// Open opens the message file read-only. A missing file is created empty and
// a notice is written to notice.
func Open(path string, notice io.Writer) (*os.File, error) {
	f, err := os.Open(path)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to open message file '%s': %w", path, err)
	}

	if notice != nil {
		fmt.Fprintf(notice, "motd: Message file '%s' does not exist, creating an empty file.\n", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create new message file '%s': %w", path, err)
		}
	}
	f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create new message file '%s': %w", path, err)
	}
	return f, nil
}
