package session

import (
	"time"

	"github.com/gardar/slidelayers/pkg/restore"
)

// PageSnapshot is the state of one page as reported to clients.
type PageSnapshot struct {
	Index             int            `json:"index"`
	Extraction        ExtractStatus  `json:"extraction"`
	Blocks            int            `json:"blocks"`
	Dropped           int            `json:"dropped,omitempty"`
	ExtractDiagnostic string         `json:"extraction_diagnostic,omitempty"`
	Restoration       restore.Status `json:"restoration"`
	Eligible          bool           `json:"eligible"`
	RestoreDiagnostic string         `json:"restoration_diagnostic,omitempty"`
}

// Snapshot is the state of a session as reported to clients.
type Snapshot struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Created      time.Time      `json:"created"`
	Pages        []PageSnapshot `json:"pages"`
	AuthRequired bool           `json:"auth_required"`
	AuthPage     int            `json:"auth_page,omitempty"`
	AuthReason   string         `json:"auth_reason,omitempty"`
	Complete     bool           `json:"complete"`
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ID:           s.ID,
		Name:         s.Name,
		Created:      s.Created,
		Pages:        make([]PageSnapshot, len(s.pages)),
		AuthRequired: s.auth.Required,
		AuthPage:     s.auth.Page,
		AuthReason:   s.auth.Reason,
		Complete:     restore.Complete(s.pages),
	}
	for i, p := range s.pages {
		t := s.text[i]
		snap.Pages[i] = PageSnapshot{
			Index:             p.Index,
			Extraction:        t.Status,
			Blocks:            len(t.Blocks),
			Dropped:           t.Dropped,
			ExtractDiagnostic: t.Diagnostic,
			Restoration:       p.Status,
			Eligible:          p.Eligible,
			RestoreDiagnostic: p.Diagnostic,
		}
	}
	return snap
}
