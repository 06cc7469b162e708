package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/liftbeat/backend/internal/models"
)

// LabelFunc extracts a grouping label from a session. ok=false excludes
// the session from that dimension only; it still counts elsewhere.
type LabelFunc func(ScoredSession) (label string, ok bool)

// Confidence tier gates. A heuristic, not a statistical test: both the
// sample floor and the effect floor must hold for a tier, and anything
// that satisfies neither tier fully falls to low.
const (
	ConfidenceHighMinN        = 25
	ConfidenceHighMinEffect   = 0.30
	ConfidenceMediumMinN      = 10
	ConfidenceMediumMinEffect = 0.15
)

// AggregateImpacts groups sessions by label and computes each label's
// impact: the group's mean score minus the overall mean, rounded to 2
// decimals. Results are ranked by |impact| descending; ties go to the
// larger sample, which favors sturdier signals. One generic
// implementation serves every dimension (genre, artist, split, hour
// bucket, energy band) through the label function.
func AggregateImpacts(sessions []ScoredSession, overallMean float64, label LabelFunc) []models.LabelImpact {
	type group struct {
		sum float64
		n   int
	}
	groups := make(map[string]*group)

	for _, s := range sessions {
		l, ok := label(s)
		if !ok || !isFinite(s.Score) {
			continue
		}
		g, exists := groups[l]
		if !exists {
			g = &group{}
			groups[l] = g
		}
		g.sum += s.Score
		g.n++
	}

	impacts := make([]models.LabelImpact, 0, len(groups))
	for l, g := range groups {
		impacts = append(impacts, models.LabelImpact{
			Label:  l,
			Impact: round2(g.sum/float64(g.n) - overallMean),
			N:      g.n,
		})
	}

	sort.Slice(impacts, func(i, j int) bool {
		ai, aj := math.Abs(impacts[i].Impact), math.Abs(impacts[j].Impact)
		if ai != aj {
			return ai > aj
		}
		if impacts[i].N != impacts[j].N {
			return impacts[i].N > impacts[j].N
		}
		return impacts[i].Label < impacts[j].Label
	})

	return impacts
}

// DetermineConfidence maps a sample size and effect magnitude to a tier.
func DetermineConfidence(n int, effect float64) models.Confidence {
	abs := math.Abs(effect)
	if n >= ConfidenceHighMinN && abs >= ConfidenceHighMinEffect {
		return models.ConfidenceHigh
	}
	if n >= ConfidenceMediumMinN && abs >= ConfidenceMediumMinEffect {
		return models.ConfidenceMedium
	}
	return models.ConfidenceLow
}

// Time-of-day buckets. Five fixed windows; 21-01 wraps around and picks
// up everything from 21:00 through 05:59.
const (
	BucketMorning   = "06-09"
	BucketMidday    = "10-12"
	BucketAfternoon = "13-16"
	BucketEvening   = "17-20"
	BucketLateNight = "21-01"
)

// HourBucket maps an hour of day (0-23) to its fixed window.
func HourBucket(hour int) string {
	switch {
	case hour >= 6 && hour <= 9:
		return BucketMorning
	case hour >= 10 && hour <= 12:
		return BucketMidday
	case hour >= 13 && hour <= 16:
		return BucketAfternoon
	case hour >= 17 && hour <= 20:
		return BucketEvening
	default:
		return BucketLateNight
	}
}

// EnergyBand buckets a [0,1] energy value: <0.4 low, [0.4,0.7) mid, >=0.7 high.
func EnergyBand(energy float64) string {
	switch {
	case energy < 0.4:
		return "low"
	case energy < 0.7:
		return "mid"
	default:
		return "high"
	}
}

// BPMBand buckets a tempo: <110, [110,128), [128,135], >135.
func BPMBand(bpm float64) string {
	switch {
	case bpm < 110:
		return "<110"
	case bpm < 128:
		return "110-128"
	case bpm <= 135:
		return "128-135"
	default:
		return ">135"
	}
}

// Label functions for the standard dimensions.

func genreLabel(s ScoredSession) (string, bool) {
	if s.PreTopGenre == nil || *s.PreTopGenre == "" {
		return "", false
	}
	return *s.PreTopGenre, true
}

func artistLabel(s ScoredSession) (string, bool) {
	if s.PreTopArtist == nil || *s.PreTopArtist == "" {
		return "", false
	}
	return *s.PreTopArtist, true
}

func splitLabel(s ScoredSession) (string, bool) {
	if s.SplitLabel == nil || *s.SplitLabel == "" {
		return "", false
	}
	return *s.SplitLabel, true
}

func hourBucketLabel(s ScoredSession) (string, bool) {
	return HourBucket(s.StartedAt.UTC().Hour()), true
}

func energyBandLabel(s ScoredSession) (string, bool) {
	if s.PreEnergy == nil {
		return "", false
	}
	return EnergyBand(*s.PreEnergy), true
}

func bpmBandLabel(s ScoredSession) (string, bool) {
	if s.PreBPM == nil {
		return "", false
	}
	return BPMBand(*s.PreBPM), true
}

// dayKey is the UTC calendar day used to group the digest.
func dayKey(s models.Session) string {
	return s.StartedAt.UTC().Format("2006-01-02")
}

// cellKey joins a sound-map row and column band.
func cellKey(row, col string) string {
	return fmt.Sprintf("%s|%s", row, col)
}
