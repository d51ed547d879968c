package image

import (
	"fmt"
	"strings"
)

// Set is the resolved input of a launch.
type Set struct {
	BootImage string
	Disks     []string
}

// ResolveSet resolves the boot image and every disk, in order. Disks must be
// distinct from each other and from the boot image.
func ResolveSet(bootImage string, disks []string) (*Set, error) {
	boot, err := Resolve(bootImage)
	if err != nil {
		return nil, fmt.Errorf("boot image: %w", err)
	}

	if len(disks) > MaxDisks {
		return nil, ErrTooManyDisks
	}

	seen := map[string]bool{key(boot): true}
	resolved := make([]string, 0, len(disks))
	for _, d := range disks {
		disk, err := Resolve(d)
		if err != nil {
			return nil, fmt.Errorf("disk: %w", err)
		}
		if seen[key(disk)] {
			return nil, fmt.Errorf("%s: %w", d, ErrDuplicateDisk)
		}
		seen[key(disk)] = true
		resolved = append(resolved, disk)
	}

	return &Set{BootImage: boot, Disks: resolved}, nil
}

// key folds case so C:\VM\a.vhdx and c:\vm\A.VHDX compare equal, matching
// the case-insensitive file system efivm targets.
func key(path string) string {
	return strings.ToLower(path)
}
