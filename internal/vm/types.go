package vm

import "time"

// Config is the input of a single launch. Paths are expected to be resolved
// already (see package image).
type Config struct {
	Name         string
	BootImage    string
	Disks        []string
	MemoryMB     int
	Cores        int
	PollInterval time.Duration
}
