package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/references"
)

const schema = `
CREATE TABLE IF NOT EXISTS reference_audit (
    id          UUID PRIMARY KEY,
    section_id  TEXT NOT NULL DEFAULT '',
    sector      TEXT NOT NULL DEFAULT '',
    policy      TEXT NOT NULL,
    outcome     TEXT NOT NULL,
    candidates  INTEGER NOT NULL,
    accepted    INTEGER NOT NULL,
    rejections  JSONB,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_reference_audit_created_at ON reference_audit (created_at DESC);
`

// PostgresSink writes events to the reference_audit table.
type PostgresSink struct {
	db *sqlx.DB
}

// OpenPostgres connects to dsn, verifies the connection and ensures the
// table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresSink, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect audit database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	sink := NewPostgresSink(db)
	if err := sink.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return sink, nil
}

// NewPostgresSink wraps an open database handle.
func NewPostgresSink(db *sqlx.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

// DB exposes the handle for health checks.
func (s *PostgresSink) DB() *sqlx.DB { return s.db }

func (s *PostgresSink) Name() string { return "postgres" }

// EnsureSchema creates the audit table if missing.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create reference_audit: %w", err)
	}
	return nil
}

func (s *PostgresSink) Write(ctx context.Context, e Event) error {
	var rejections []byte
	if len(e.Rejections) > 0 {
		b, err := json.Marshal(e.Rejections)
		if err != nil {
			return fmt.Errorf("marshal rejections: %w", err)
		}
		rejections = b
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO reference_audit (
            id, section_id, sector, policy, outcome, candidates, accepted, rejections, created_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (id) DO NOTHING
    `, e.ID, e.SectionID, e.Sector, e.Policy, e.Outcome, e.Candidates, e.Accepted, rejections, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reference_audit: %w", err)
	}
	return nil
}

type auditRow struct {
	ID         string    `db:"id"`
	SectionID  string    `db:"section_id"`
	Sector     string    `db:"sector"`
	Policy     string    `db:"policy"`
	Outcome    string    `db:"outcome"`
	Candidates int       `db:"candidates"`
	Accepted   int       `db:"accepted"`
	Rejections []byte    `db:"rejections"`
	CreatedAt  time.Time `db:"created_at"`
}

func (s *PostgresSink) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []auditRow
	err := s.db.SelectContext(ctx, &rows, `
        SELECT id, section_id, sector, policy, outcome, candidates, accepted, rejections, created_at
        FROM reference_audit
        ORDER BY created_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("select reference_audit: %w", err)
	}

	out := make([]Event, 0, len(rows))
	for _, r := range rows {
		e := Event{
			ID:         r.ID,
			SectionID:  r.SectionID,
			Sector:     r.Sector,
			Policy:     r.Policy,
			Outcome:    r.Outcome,
			Candidates: r.Candidates,
			Accepted:   r.Accepted,
			CreatedAt:  r.CreatedAt,
		}
		if len(r.Rejections) > 0 {
			var rej []references.Rejection
			if err := json.Unmarshal(r.Rejections, &rej); err != nil {
				return nil, fmt.Errorf("decode rejections for %s: %w", r.ID, err)
			}
			e.Rejections = rej
		}
		out = append(out, e)
	}
	return out, nil
}
