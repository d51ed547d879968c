// Package image resolves and checks the host files handed to efivm: the UEFI
// boot image and any disk images to attach.
package image

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// MaxDisks is the number of LUNs on the single SCSI controller efivm
// configures.
const MaxDisks = 64

var (
	ErrEmptyPath     = errors.New("path cannot be empty")
	ErrNotAFile      = errors.New("not a file")
	ErrDuplicateDisk = errors.New("disk attached more than once")
	ErrTooManyDisks  = fmt.Errorf("at most %d disks can be attached", MaxDisks)
)

// Resolve expands ~, makes path absolute, resolves symlinks and checks that
// the result is an existing regular file.
func Resolve(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to convert to absolute path: %w", err)
	}

	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	info, err := os.Stat(real)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: %w", path, ErrNotAFile)
	}

	return filepath.Clean(real), nil
}

// IsISO reports whether a disk image should be attached as optical media.
func IsISO(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".iso")
}
