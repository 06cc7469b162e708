package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/liftbeat/backend/internal/models"
	"github.com/liftbeat/backend/pkg/supabase"
)

type performanceRepository struct {
	client *supabase.Client
}

// NewPerformanceRepository creates a new performance session repository
func NewPerformanceRepository(client *supabase.Client) PerformanceRepository {
	return &performanceRepository{client: client}
}

func (r *performanceRepository) ListSessions(ctx context.Context, userID string, since time.Time, split *string) ([]models.PerformanceRow, error) {
	query := map[string]interface{}{
		"user_id":    fmt.Sprintf("eq.%s", userID),
		"started_at": fmt.Sprintf("gte.%s", since.Format(time.RFC3339)),
		"select":     "*",
		"order":      "started_at.desc",
	}

	// Split is the only filter the store applies; genre/artist filtering
	// happens after the join.
	if split != nil && *split != "" {
		query["split_label"] = fmt.Sprintf("eq.%s", *split)
	}

	body, err := r.client.Query(ctx, "performance_sessions", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list performance sessions: %w", err)
	}

	var rows []models.PerformanceRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return rows, nil
}
