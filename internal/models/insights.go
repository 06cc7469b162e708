package models

import "time"

// Confidence represents the confidence tier of an insight
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// LabelDimension identifies which grouping a label came from. The booster
// list is diversified across dimensions so it does not collapse into a
// genre-only ranking.
type LabelDimension string

const (
	DimensionGenre   LabelDimension = "genre"
	DimensionArtist  LabelDimension = "artist"
	DimensionWorkout LabelDimension = "workout"
	DimensionTime    LabelDimension = "time"
)

// LabelImpact is one label's mean-score deviation from the overall mean
// across the current filtered session set. Ephemeral, recomputed per request.
type LabelImpact struct {
	Label  string  `json:"label"`
	Impact float64 `json:"impact"`
	N      int     `json:"n"`
}

// Chip is a user-facing booster or drainer entry.
type Chip struct {
	Label      string     `json:"label"`
	Impact     float64    `json:"impact"`
	N          int        `json:"n"`
	Confidence Confidence `json:"confidence"`
	Evidence   []string   `json:"evidence,omitempty"`
}

// SummaryFilters echoes the filters a summary was computed under.
type SummaryFilters struct {
	Days   int     `json:"days"`
	Split  *string `json:"split,omitempty"`
	Genre  *string `json:"genre,omitempty"`
	Artist *string `json:"artist,omitempty"`
	Sample int     `json:"sample"`
}

// Headline is the top section of the summary response. Score is the mean
// combined session score clamped to [-1, 1].
type Headline struct {
	Score    float64 `json:"score"`
	BestTime *string `json:"best_time"`
	Recipe   *string `json:"recipe"`
	Copy     string  `json:"copy"`
}

// ChipGroup splits chips by label dimension for the summary payload.
type ChipGroup struct {
	Genres  []Chip `json:"genres"`
	Artists []Chip `json:"artists"`
}

// Recommendations carries the playable suggestion and the fixed legend
// explaining the confidence wording.
type Recommendations struct {
	PlayURL *string `json:"play_url"`
	Notes   string  `json:"notes"`
}

// SummaryResponse is the payload of GET /insights/summary.
type SummaryResponse struct {
	Filters         SummaryFilters  `json:"filters"`
	Headline        Headline        `json:"headline"`
	Boosters        ChipGroup       `json:"boosters"`
	Drainers        ChipGroup       `json:"drainers"`
	Recommendations Recommendations `json:"recommendations"`
}

// TimeSlot is one qualifying hour bucket ranked by mean score.
type TimeSlot struct {
	Bucket    string  `json:"bucket"`
	MeanScore float64 `json:"mean_score"`
	N         int     `json:"n"`
}

// DaySummary aggregates one UTC calendar day of the digest.
type DaySummary struct {
	MoodAvg       *float64 `json:"mood_avg"`
	WorkoutVolume float64  `json:"workout_volume"`
	MusicMinutes  float64  `json:"music_minutes"`
	SessionCount  int      `json:"session_count"`
	WithMusic     int      `json:"with_music"`
	WithMood      int      `json:"with_mood"`
	TopGenre      *string  `json:"top_genre"`
}

// DayDigest is one day's entry list plus its summary.
type DayDigest struct {
	Summary DaySummary `json:"summary"`
	Entries []Session  `json:"entries"`
}

// DigestResponse groups sessions by UTC calendar day. Days maps a
// YYYY-MM-DD key to that day's digest; Order lists the keys newest first
// since JSON objects carry no ordering.
type DigestResponse struct {
	Days       map[string]DayDigest `json:"days"`
	Order      []string             `json:"order"`
	ComputedAt time.Time            `json:"computed_at"`
}

// SoundMapCell is one populated cell of the sound-map grid. MeanPerf and
// MeanMood are rounded to 2 decimals; MeanMood is nil when no session in
// the cell carried mood data.
type SoundMapCell struct {
	Row      string   `json:"row"`
	Col      string   `json:"col"`
	Count    int      `json:"count"`
	MeanPerf float64  `json:"mean_perf"`
	MeanMood *float64 `json:"mean_mood"`
}

// SoundMapResponse is the payload of GET /insights/sound-map. The grid is
// sparse: only cells with at least one session appear.
type SoundMapResponse struct {
	Axis  string         `json:"axis"`
	Cells []SoundMapCell `json:"cells"`
}
