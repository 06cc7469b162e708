package models

import "time"

// Session is the joined, request-scoped view of one workout: performance
// numbers plus the music listened to right before it and the mood change
// attributed to it. It is never persisted; every request rebuilds it from
// the three source collections.
type Session struct {
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	StartedAt  time.Time `json:"started_at"`
	SplitLabel *string   `json:"split_label,omitempty"`

	Tonnage   float64 `json:"tonnage"`
	TonnageZ  float64 `json:"tonnage_z"`
	SetsCount int     `json:"sets_count"`

	PreEnergy    *float64 `json:"pre_energy,omitempty"`
	PreValence   *float64 `json:"pre_valence,omitempty"`
	PreTopGenre  *string  `json:"pre_top_genre,omitempty"`
	PreTopArtist *string  `json:"pre_top_artist,omitempty"`
	PreBPM       *float64 `json:"pre_bpm,omitempty"`

	// Minutes of pre-workout listening attributed to this session.
	// Zero when the music context carries no duration information.
	PreListenMinutes float64 `json:"pre_listen_minutes"`

	// Post-workout mood minus pre-workout mood. Nil means no mood data
	// was logged for this session; such sessions are excluded from
	// mood-dependent aggregates but still count for performance ones.
	MoodDelta *float64 `json:"mood_delta,omitempty"`
}

// PerformanceRow is one row of the performance_sessions view. tonnage_z is
// standardized upstream against the user's own history and treated here as
// an opaque pre-computed input.
type PerformanceRow struct {
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	StartedAt  time.Time `json:"started_at"`
	SplitLabel *string   `json:"split_label"`
	Tonnage    float64   `json:"tonnage"`
	TonnageZ   *float64  `json:"tonnage_z"`
	SetsCount  int       `json:"sets_count"`
}

// MusicContextRow is one raw pre-session music context record. The
// enrichment jobs that populate it have drifted over time, so Fields keeps
// the original key/value pairs untouched and normalization happens later.
type MusicContextRow struct {
	SessionID string
	Fields    map[string]any
}

// MoodDeltaRow is one row of the mood-delta view. The delta column has
// shipped as both a number and a numeric string, hence FlexFloat.
type MoodDeltaRow struct {
	SessionID string    `json:"session_id"`
	MoodDelta FlexFloat `json:"mood_delta"`
}

// SessionFilters narrows a join request. Split is pushed to the store;
// genre and artist are applied case-insensitively after the join.
type SessionFilters struct {
	Split  *string
	Genre  *string
	Artist *string
}
