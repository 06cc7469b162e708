package service

import (
	"math"

	"github.com/liftbeat/backend/internal/models"
)

// Fixed design constants, not learned parameters. The combined score
// weighs standardized performance against standardized mood change.
const (
	WeightPerformance = 0.6
	WeightMood        = 0.4
)

// ScoredSession pairs a joined session with its derived z-scores and
// combined score. Request-scoped, never persisted.
type ScoredSession struct {
	models.Session
	PerfZ float64
	MoodZ float64
	Score float64
}

// ScoreSessions computes per-session scores and the overall mean for a
// joined session list.
//
// PerfZ is the session's own tonnage_z (standardized upstream against the
// user's history) when finite, else 0. MoodZ standardizes mood_delta
// against this cohort using the population standard deviation; a cohort
// with fewer than 2 mood observations, or zero spread, yields MoodZ = 0
// for every session rather than NaN artifacts.
//
// The returned mean ignores non-finite scores and is 0 for an empty set,
// so downstream impact subtraction stays well defined.
func ScoreSessions(sessions []models.Session) ([]ScoredSession, float64) {
	if len(sessions) == 0 {
		return []ScoredSession{}, 0
	}

	var moodValues []float64
	for _, s := range sessions {
		if s.MoodDelta != nil && isFinite(*s.MoodDelta) {
			moodValues = append(moodValues, *s.MoodDelta)
		}
	}

	moodMean, moodStd := 0.0, 0.0
	standardizeMood := len(moodValues) >= 2
	if standardizeMood {
		moodMean = mean(moodValues)
		moodStd = populationStdDev(moodValues, moodMean)
		if moodStd == 0 {
			standardizeMood = false
		}
	}

	scored := make([]ScoredSession, 0, len(sessions))
	for _, s := range sessions {
		perfZ := 0.0
		if isFinite(s.TonnageZ) {
			perfZ = s.TonnageZ
		}

		moodZ := 0.0
		if standardizeMood && s.MoodDelta != nil && isFinite(*s.MoodDelta) {
			moodZ = (*s.MoodDelta - moodMean) / moodStd
		}

		scored = append(scored, ScoredSession{
			Session: s,
			PerfZ:   perfZ,
			MoodZ:   moodZ,
			Score:   WeightPerformance*perfZ + WeightMood*moodZ,
		})
	}

	var scores []float64
	for _, s := range scored {
		if isFinite(s.Score) {
			scores = append(scores, s.Score)
		}
	}

	overallMean := 0.0
	if len(scores) > 0 {
		overallMean = mean(scores)
	}

	return scored, overallMean
}

// mean computes the arithmetic mean. Callers guarantee a non-empty slice.
func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationStdDev computes the population (not sample) standard
// deviation around the given mean. Population form keeps the degenerate
// two-observation cohort stable and matches what the upstream views use.
func populationStdDev(values []float64, m float64) float64 {
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// round2 rounds to 2 decimal places for user-facing numbers.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// clampScore bounds the headline score to [-1, 1].
func clampScore(v float64) float64 {
	return math.Min(math.Max(v, -1), 1)
}
