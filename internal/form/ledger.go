package form

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketplace-gateway/internal/models"

	"github.com/google/uuid"
)

// Entry is one row of the submission ledger.
type Entry struct {
	Form      string
	SessionID string
	Outcome   models.Outcome
	Status    int
	Duration  time.Duration
}

// Recorder stores finished submissions.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Ledger writes form_submissions rows to PostgreSQL.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

const insertSubmission = `
	INSERT INTO form_submissions (id, form, session_id, outcome, http_status, duration_ms, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

func (l *Ledger) Record(ctx context.Context, e Entry) error {
	_, err := l.db.ExecContext(ctx, insertSubmission,
		uuid.NewString(),
		e.Form,
		e.SessionID,
		string(e.Outcome),
		e.Status,
		e.Duration.Milliseconds(),
		l.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

// NopLedger discards entries; used when postgres is disabled.
type NopLedger struct{}

func (NopLedger) Record(context.Context, Entry) error { return nil }
