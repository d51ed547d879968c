package session

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidName is returned for VM names that cannot serve as a compute
// system ID, pipe name and record file name at once.
var ErrInvalidName = errors.New("invalid VM name")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateName checks that name starts with a letter or digit and contains
// only letters, digits, '.', '_' and '-'.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
