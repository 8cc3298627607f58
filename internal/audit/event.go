package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/references"
)

// Event records the outcome of one section assembly.
type Event struct {
	ID         string                 `json:"id"`
	SectionID  string                 `json:"section_id"`
	Sector     string                 `json:"sector"`
	Policy     string                 `json:"policy"`
	Outcome    string                 `json:"outcome"`
	Candidates int                    `json:"candidates"`
	Accepted   int                    `json:"accepted"`
	Rejections []references.Rejection `json:"rejections,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// FromReport builds an event for an assembly report.
func FromReport(r *references.Report) Event {
	e := Event{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	if r == nil {
		return e
	}
	e.SectionID = r.SectionID
	e.Sector = r.Sector
	e.Policy = string(r.Policy)
	e.Outcome = string(r.Outcome)
	e.Candidates = r.Candidates
	e.Accepted = len(r.References)
	e.Rejections = r.Rejections
	return e
}

// Sink persists audit events.
type Sink interface {
	Name() string
	Write(ctx context.Context, e Event) error
}

// Reader is implemented by sinks that can return recent events, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Event, error)
}
