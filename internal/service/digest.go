package service

import (
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/liftbeat/backend/internal/models"
)

// Composer guardrails. Fixed constants: behavior parity with the mobile
// clients matters more than tunability here.
const (
	MaxBoosters      = 3
	MaxDrainers      = 2
	MaxTimeSlots     = 2
	MinTimeSlotObs   = 2
	MaxEvidenceLines = 5

	// Week-over-week mood trend: the headline only calls a move beyond
	// this threshold, and only with enough recent observations.
	TrendThreshold   = 0.15
	MinRecentMoodObs = 3
	trendWindowDays  = 7
)

// ConfidenceLegend explains the confidence wording shown in the UI. The
// thresholds mirror DetermineConfidence.
const ConfidenceLegend = "Likely = 25+ sessions with a clear effect. Tentative = 10+ sessions. Anecdotal = smaller samples."

// KindedImpact tags a label impact with the dimension it came from, so
// the booster list can be diversified across dimensions.
type KindedImpact struct {
	models.LabelImpact
	Kind models.LabelDimension
}

// mergeImpactPool flattens per-dimension impact lists into one pool
// ordered by |impact| descending with the same tie-breaks the aggregator
// uses.
func mergeImpactPool(lists map[models.LabelDimension][]models.LabelImpact) []KindedImpact {
	var pool []KindedImpact
	for kind, impacts := range lists {
		for _, imp := range impacts {
			pool = append(pool, KindedImpact{LabelImpact: imp, Kind: kind})
		}
	}
	sort.Slice(pool, func(i, j int) bool {
		ai, aj := abs(pool[i].Impact), abs(pool[j].Impact)
		if ai != aj {
			return ai > aj
		}
		if pool[i].N != pool[j].N {
			return pool[i].N > pool[j].N
		}
		if pool[i].Label != pool[j].Label {
			return pool[i].Label < pool[j].Label
		}
		return pool[i].Kind < pool[j].Kind
	})
	return pool
}

// PickBoosters selects up to MaxBoosters positive-impact entries, at most
// one per dimension. First match per dimension wins while walking the
// impact-sorted pool, so a strong genre cannot crowd out the best time
// slot with its second and third genres.
func PickBoosters(pool []KindedImpact) []KindedImpact {
	var picked []KindedImpact
	seen := make(map[models.LabelDimension]bool)

	for _, entry := range pool {
		if entry.Impact <= 0 {
			continue
		}
		if seen[entry.Kind] {
			continue
		}
		picked = append(picked, entry)
		seen[entry.Kind] = true
		if len(picked) == MaxBoosters {
			break
		}
	}
	return picked
}

// PickDrainers selects up to MaxDrainers negative-impact entries. No
// dimension diversification: two draining genres are still worth showing.
func PickDrainers(pool []KindedImpact) []KindedImpact {
	var picked []KindedImpact
	for _, entry := range pool {
		if entry.Impact >= 0 {
			continue
		}
		picked = append(picked, entry)
		if len(picked) == MaxDrainers {
			break
		}
	}
	return picked
}

// BestTimeSlots ranks hour buckets by mean score and returns the top
// MaxTimeSlots with at least MinTimeSlotObs sessions. Buckets below the
// threshold are excluded, not zero-filled.
func BestTimeSlots(sessions []ScoredSession) []models.TimeSlot {
	type bucket struct {
		sum float64
		n   int
	}
	buckets := make(map[string]*bucket)
	for _, s := range sessions {
		if !isFinite(s.Score) {
			continue
		}
		key := HourBucket(s.StartedAt.UTC().Hour())
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.sum += s.Score
		b.n++
	}

	var slots []models.TimeSlot
	for key, b := range buckets {
		if b.n < MinTimeSlotObs {
			continue
		}
		slots = append(slots, models.TimeSlot{
			Bucket:    key,
			MeanScore: round2(b.sum / float64(b.n)),
			N:         b.n,
		})
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].MeanScore != slots[j].MeanScore {
			return slots[i].MeanScore > slots[j].MeanScore
		}
		if slots[i].N != slots[j].N {
			return slots[i].N > slots[j].N
		}
		return slots[i].Bucket < slots[j].Bucket
	})

	if len(slots) > MaxTimeSlots {
		slots = slots[:MaxTimeSlots]
	}
	return slots
}

// HeadlineCopy picks the narrative line by comparing the most recent
// 7-day mood-delta mean against the prior 7 days.
func HeadlineCopy(sessions []ScoredSession, now time.Time) string {
	weekAgo := now.AddDate(0, 0, -trendWindowDays)
	twoWeeksAgo := now.AddDate(0, 0, -2*trendWindowDays)

	var recentMoods, priorMoods []float64
	recentSessions := 0
	for _, s := range sessions {
		switch {
		case !s.StartedAt.Before(weekAgo):
			recentSessions++
			if s.MoodDelta != nil && isFinite(*s.MoodDelta) {
				recentMoods = append(recentMoods, *s.MoodDelta)
			}
		case !s.StartedAt.Before(twoWeeksAgo):
			if s.MoodDelta != nil && isFinite(*s.MoodDelta) {
				priorMoods = append(priorMoods, *s.MoodDelta)
			}
		}
	}

	if recentSessions == 0 {
		return "No sessions in the last week. Your next workout picks the story back up."
	}
	if len(recentMoods) < MinRecentMoodObs || len(priorMoods) == 0 {
		return "Keep logging moods around your workouts and we'll start spotting trends."
	}

	delta := mean(recentMoods) - mean(priorMoods)
	switch {
	case delta > TrendThreshold:
		return "Your post-workout mood improved this week. Whatever you changed, it's working."
	case delta < -TrendThreshold:
		return "Your post-workout mood dipped this week. Worth a look at what changed."
	default:
		return "Your post-workout mood held steady this week."
	}
}

// EvidenceLines formats up to MaxEvidenceLines human-readable examples
// for the sessions carrying a label: weekday, time, split (or "Workout"),
// genre (or "Music"), and whether the session scored better or worse than
// the user's baseline.
func EvidenceLines(sessions []ScoredSession, matches LabelFunc, wantLabel string, overallMean float64) []string {
	var lines []string
	for _, s := range sessions {
		label, ok := matches(s)
		if !ok || label != wantLabel {
			continue
		}

		split := "Workout"
		if s.SplitLabel != nil && *s.SplitLabel != "" {
			split = *s.SplitLabel
		}
		genre := "Music"
		if s.PreTopGenre != nil && *s.PreTopGenre != "" {
			genre = *s.PreTopGenre
		}
		verdict := "worse"
		if s.Score >= overallMean {
			verdict = "better"
		}

		at := s.StartedAt.UTC()
		lines = append(lines, fmt.Sprintf("%s %s · %s · %s · %s",
			at.Weekday().String()[:3], at.Format("15:04"), split, genre, verdict))

		if len(lines) == MaxEvidenceLines {
			break
		}
	}
	return lines
}

// BuildRecipe combines the strongest positive genre with the best time
// slot into a one-line suggestion. Nil when neither signal exists.
func BuildRecipe(boosters []KindedImpact, slots []models.TimeSlot) *string {
	var genre string
	for _, b := range boosters {
		if b.Kind == models.DimensionGenre {
			genre = b.Label
			break
		}
	}

	switch {
	case genre != "" && len(slots) > 0:
		r := fmt.Sprintf("%s around %s", genre, slots[0].Bucket)
		return &r
	case genre != "":
		return &genre
	case len(slots) > 0:
		r := fmt.Sprintf("Train around %s", slots[0].Bucket)
		return &r
	default:
		return nil
	}
}

// BuildPlayURL links the strongest positive genre to a playable search.
// No outbound request is made; enrichment owns the provider integration.
func BuildPlayURL(boosters []KindedImpact) *string {
	for _, b := range boosters {
		if b.Kind == models.DimensionGenre && b.Impact > 0 {
			u := "https://open.spotify.com/search/" + url.PathEscape(b.Label)
			return &u
		}
	}
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
