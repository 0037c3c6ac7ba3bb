// Package usage keeps per-user daily counters of observation queries.
package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"regioniq/pkg/requestcontext"
)

const dayLayout = "2006-01-02"

// Entry is one completed query.
type Entry struct {
	UserID    string
	At        time.Time
	Estimated int
	Returned  int
	Truncated bool
}

// Totals are the counters for one user on one UTC day.
type Totals struct {
	Queries          int64
	EstimatedRecords int64
	ReturnedRecords  int64
	Truncated        int64
}

// Ledger stores usage counters.
type Ledger interface {
	Record(ctx context.Context, e Entry) error
	Totals(ctx context.Context, userID string, day time.Time) (Totals, error)
}

func dayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// MemoryLedger keeps counters in process memory.
type MemoryLedger struct {
	mu     sync.Mutex
	totals map[string]Totals
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{totals: make(map[string]Totals)}
}

func (m *MemoryLedger) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := e.UserID + "|" + dayKey(e.At)
	t := m.totals[key]
	t.Queries++
	t.EstimatedRecords += int64(e.Estimated)
	t.ReturnedRecords += int64(e.Returned)
	if e.Truncated {
		t.Truncated++
	}
	m.totals[key] = t
	return nil
}

func (m *MemoryLedger) Totals(_ context.Context, userID string, day time.Time) (Totals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals[userID+"|"+dayKey(day)], nil
}

// Recorder logs one usage line per query and forwards it to the ledger.
// Ledger failures are logged and never surface to the caller.
type Recorder struct {
	ledger Ledger
	logger *slog.Logger
}

// NewRecorder builds a recorder. A nil ledger only logs.
func NewRecorder(ledger Ledger, logger *slog.Logger) *Recorder {
	return &Recorder{ledger: ledger, logger: logger}
}

// Record notes a completed query.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	r.logger.InfoContext(ctx, "observation query usage",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", e.UserID,
		"estimated", e.Estimated,
		"returned", e.Returned,
		"truncated", e.Truncated,
	)
	if r.ledger == nil {
		return
	}
	if err := r.ledger.Record(ctx, e); err != nil {
		r.logger.WarnContext(ctx, "failed to record usage",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", e.UserID,
			"error", err,
		)
	}
}
