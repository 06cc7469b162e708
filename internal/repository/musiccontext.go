package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/liftbeat/backend/internal/models"
	"github.com/liftbeat/backend/pkg/supabase"
)

type musicContextRepository struct {
	client *supabase.Client
}

// NewMusicContextRepository creates a new music context repository
func NewMusicContextRepository(client *supabase.Client) MusicContextRepository {
	return &musicContextRepository{client: client}
}

func (r *musicContextRepository) ListBySessionIDs(ctx context.Context, sessionIDs []string) ([]models.MusicContextRow, error) {
	if len(sessionIDs) == 0 {
		return []models.MusicContextRow{}, nil
	}

	query := map[string]interface{}{
		"session_id": inFilter(sessionIDs),
		"select":     "*",
	}

	body, err := r.client.Query(ctx, "session_music_context", query)
	if err != nil {
		return nil, fmt.Errorf("failed to list music context: %w", err)
	}

	// The enrichment jobs have changed this table's shape repeatedly, so
	// rows are decoded as raw maps and normalized downstream.
	var raw []map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	rows := make([]models.MusicContextRow, 0, len(raw))
	for _, fields := range raw {
		id := extractSessionID(fields)
		if id == "" {
			continue
		}
		rows = append(rows, models.MusicContextRow{SessionID: id, Fields: fields})
	}

	return rows, nil
}

// extractSessionID pulls the session key out of a raw row regardless of
// key casing.
func extractSessionID(fields map[string]any) string {
	for key, value := range fields {
		switch strings.ToLower(key) {
		case "session_id", "sessionid":
			if s, ok := value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// inFilter builds a PostgREST in.(...) filter from a list of ids.
func inFilter(ids []string) string {
	var b strings.Builder
	b.WriteString("in.(")
	for i, id := range ids {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(id)
	}
	b.WriteString(")")
	return b.String()
}
