package service

import (
	"context"

	"github.com/liftbeat/backend/internal/models"
)

// Sound-map axis presets.
const (
	AxisEnergyBPM   = "energy-bpm"
	AxisGenreEnergy = "genre-energy"
)

// InsightsService computes the insight views. Every call rebuilds its
// result from the source collections; nothing is cached or persisted.
type InsightsService interface {
	// Summary computes boosters, drainers, and the headline for the
	// user's sessions within the window.
	Summary(ctx context.Context, userID string, days int, filters models.SessionFilters) (*models.SummaryResponse, error)

	// Digest groups the window's sessions by UTC calendar day with
	// per-day rollups.
	Digest(ctx context.Context, userID string, days int) (*models.DigestResponse, error)

	// SoundMap builds the sparse grid for the given axis preset.
	SoundMap(ctx context.Context, userID string, days int, axis string) (*models.SoundMapResponse, error)
}
