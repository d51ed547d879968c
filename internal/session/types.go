package session

import "time"

// Session statuses.
const (
	StatusCreated = "created"
	StatusRunning = "running"
	StatusFailed  = "failed"
	StatusStopped = "stopped"
)

// Session records one VM launch
type Session struct {
	ID         string     `json:"id"`                   // VM name, also the HCS compute system ID
	RuntimeID  string     `json:"runtime_id,omitempty"` // assigned by HCS after create
	BootImage  string     `json:"boot_image"`
	Disks      []string   `json:"disks"`
	MemoryMB   int        `json:"memory_mb"`
	Cores      int        `json:"cores"`
	Pipe       string     `json:"pipe"` // COM1 named pipe
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	StoppedAt  *time.Time `json:"stopped_at,omitempty"`
	ExitReason string     `json:"exit_reason,omitempty"` // "detach" | "signal" | error text
}

// Finish marks the session stopped with the given reason.
func (s *Session) Finish(status, reason string) {
	now := time.Now()
	s.Status = status
	s.StoppedAt = &now
	s.ExitReason = reason
}
