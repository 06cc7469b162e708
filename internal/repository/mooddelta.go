package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/liftbeat/backend/internal/models"
	"github.com/liftbeat/backend/pkg/supabase"
)

type moodDeltaRepository struct {
	client *supabase.Client
}

// NewMoodDeltaRepository creates a new mood delta repository
func NewMoodDeltaRepository(client *supabase.Client) MoodDeltaRepository {
	return &moodDeltaRepository{client: client}
}

func (r *moodDeltaRepository) ListBySessionIDs(ctx context.Context, sessionIDs []string) ([]models.MoodDeltaRow, error) {
	if len(sessionIDs) == 0 {
		return []models.MoodDeltaRow{}, nil
	}

	query := map[string]interface{}{
		"session_id": inFilter(sessionIDs),
		"select":     "*",
	}

	body, err := r.client.Query(ctx, "session_mood_deltas", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list mood deltas: %w", err)
	}

	var rows []models.MoodDeltaRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return rows, nil
}
