package repository

import (
	"context"
	"time"

	"github.com/liftbeat/backend/internal/models"
)

// PerformanceRepository reads the performance_sessions view. This is the
// primary collection: a failure here is fatal for the request.
type PerformanceRepository interface {
	ListSessions(ctx context.Context, userID string, since time.Time, split *string) ([]models.PerformanceRow, error)
}

// MusicContextRepository reads raw pre-session music context rows for a
// known set of session ids. Row contents are heterogeneous; callers
// normalize them.
type MusicContextRepository interface {
	ListBySessionIDs(ctx context.Context, sessionIDs []string) ([]models.MusicContextRow, error)
}

// MoodDeltaRepository reads mood-delta rows for a known set of session
// ids. The view is optional: callers treat a failure as "no mood data".
type MoodDeltaRepository interface {
	ListBySessionIDs(ctx context.Context, sessionIDs []string) ([]models.MoodDeltaRow, error)
}

// TelemetryRepository records best-effort usage events. Errors are logged
// by callers, never surfaced to the user.
type TelemetryRepository interface {
	RecordView(ctx context.Context, userID, view string, sample int) error
}
