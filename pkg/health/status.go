package health

import "sync/atomic"

// Status is the process-wide result of the last deep status probe.
// It starts online so /status does not report failure before the first
// probe has run.
type Status struct {
	online atomic.Bool
}

// NewStatus returns a Status reporting online.
func NewStatus() *Status {
	s := &Status{}
	s.online.Store(true)
	return s
}

// Online reports the last probe result.
func (s *Status) Online() bool {
	return s.online.Load()
}

// Set records a probe result.
func (s *Status) Set(online bool) {
	s.online.Store(online)
}
