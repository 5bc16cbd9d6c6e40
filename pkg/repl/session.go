package repl

import "github.com/duynguyendang/gerd/pkg/erd"

// Session holds what the REPL has loaded so far.
type Session struct {
	// Environment is the catalog used for lookups. Empty means none.
	Environment string

	EventPath    string
	TemplatePath string

	// LastResult is the most recent decompile output.
	LastResult *erd.Result
}

// NewSession creates a session bound to env.
func NewSession(env string) *Session {
	return &Session{Environment: env}
}

// HasResult returns true once something has been decompiled.
func (s *Session) HasResult() bool {
	return s.LastResult != nil
}
