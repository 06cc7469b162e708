package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/liftbeat/backend/pkg/supabase"
)

type telemetryRepository struct {
	client *supabase.Client
}

// NewTelemetryRepository creates a new telemetry repository
func NewTelemetryRepository(client *supabase.Client) TelemetryRepository {
	return &telemetryRepository{client: client}
}

func (r *telemetryRepository) RecordView(ctx context.Context, userID, view string, sample int) error {
	data := map[string]interface{}{
		"user_id":   userID,
		"view":      view,
		"sample":    sample,
		"viewed_at": time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := r.client.Insert(ctx, "insight_views", data); err != nil {
		return fmt.Errorf("failed to record insight view: %w", err)
	}

	return nil
}
