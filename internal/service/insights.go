package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/liftbeat/backend/internal/logger"
	"github.com/liftbeat/backend/internal/models"
	"github.com/liftbeat/backend/internal/repository"
)

type insightsService struct {
	performance repository.PerformanceRepository
	music       repository.MusicContextRepository
	mood        repository.MoodDeltaRepository
	telemetry   repository.TelemetryRepository
	log         logger.Logger

	telemetryWrites bool
}

// NewInsightsService creates the insights service. telemetry may be nil
// when view recording is disabled.
func NewInsightsService(
	performance repository.PerformanceRepository,
	music repository.MusicContextRepository,
	mood repository.MoodDeltaRepository,
	telemetry repository.TelemetryRepository,
	log logger.Logger,
	telemetryWrites bool,
) InsightsService {
	return &insightsService{
		performance:     performance,
		music:           music,
		mood:            mood,
		telemetry:       telemetry,
		log:             log,
		telemetryWrites: telemetryWrites,
	}
}

func (s *insightsService) Summary(ctx context.Context, userID string, days int, filters models.SessionFilters) (*models.SummaryResponse, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)

	sessions, err := s.joinSessions(ctx, userID, since, filters, false)
	if err != nil {
		return nil, err
	}

	scored, overallMean := ScoreSessions(sessions)

	genreImpacts := AggregateImpacts(scored, overallMean, genreLabel)
	artistImpacts := AggregateImpacts(scored, overallMean, artistLabel)
	splitImpacts := AggregateImpacts(scored, overallMean, splitLabel)
	timeImpacts := AggregateImpacts(scored, overallMean, hourBucketLabel)

	pool := mergeImpactPool(map[models.LabelDimension][]models.LabelImpact{
		models.DimensionGenre:   genreImpacts,
		models.DimensionArtist:  artistImpacts,
		models.DimensionWorkout: splitImpacts,
		models.DimensionTime:    timeImpacts,
	})
	boosters := PickBoosters(pool)
	slots := BestTimeSlots(scored)

	var bestTime *string
	if len(slots) > 0 {
		bestTime = &slots[0].Bucket
	}

	resp := &models.SummaryResponse{
		Filters: models.SummaryFilters{
			Days:   days,
			Split:  filters.Split,
			Genre:  filters.Genre,
			Artist: filters.Artist,
			Sample: len(sessions),
		},
		Headline: models.Headline{
			Score:    round2(clampScore(overallMean)),
			BestTime: bestTime,
			Recipe:   BuildRecipe(boosters, slots),
			Copy:     HeadlineCopy(scored, time.Now().UTC()),
		},
		Boosters: models.ChipGroup{
			Genres:  s.buildChips(scored, genreImpacts, genreLabel, overallMean, true, MaxBoosters),
			Artists: s.buildChips(scored, artistImpacts, artistLabel, overallMean, true, MaxBoosters),
		},
		Drainers: models.ChipGroup{
			Genres:  s.buildChips(scored, genreImpacts, genreLabel, overallMean, false, MaxDrainers),
			Artists: s.buildChips(scored, artistImpacts, artistLabel, overallMean, false, MaxDrainers),
		},
		Recommendations: models.Recommendations{
			PlayURL: BuildPlayURL(boosters),
			Notes:   ConfidenceLegend,
		},
	}

	s.recordView(ctx, userID, "summary", len(sessions))
	return resp, nil
}

// buildChips turns an impact ranking into user-facing chips, keeping only
// the requested sign and attaching confidence and evidence lines.
func (s *insightsService) buildChips(scored []ScoredSession, impacts []models.LabelImpact, label LabelFunc, overallMean float64, positive bool, limit int) []models.Chip {
	chips := make([]models.Chip, 0, limit)
	for _, imp := range impacts {
		if positive && imp.Impact <= 0 {
			continue
		}
		if !positive && imp.Impact >= 0 {
			continue
		}
		chips = append(chips, models.Chip{
			Label:      imp.Label,
			Impact:     imp.Impact,
			N:          imp.N,
			Confidence: DetermineConfidence(imp.N, imp.Impact),
			Evidence:   EvidenceLines(scored, label, imp.Label, overallMean),
		})
		if len(chips) == limit {
			break
		}
	}
	return chips
}

func (s *insightsService) Digest(ctx context.Context, userID string, days int) (*models.DigestResponse, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)

	sessions, err := s.joinSessions(ctx, userID, since, models.SessionFilters{}, false)
	if err != nil {
		return nil, err
	}

	dayDigests := make(map[string]models.DayDigest)
	for _, session := range sessions {
		key := dayKey(session)
		digest := dayDigests[key]
		digest.Entries = append(digest.Entries, session)
		dayDigests[key] = digest
	}

	for key, digest := range dayDigests {
		digest.Summary = summarizeDay(digest.Entries)
		dayDigests[key] = digest
	}

	order := make([]string, 0, len(dayDigests))
	for key := range dayDigests {
		order = append(order, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(order)))

	resp := &models.DigestResponse{
		Days:       dayDigests,
		Order:      order,
		ComputedAt: time.Now().UTC(),
	}

	s.recordView(ctx, userID, "digest", len(sessions))
	return resp, nil
}

// summarizeDay rolls one day's entries into its summary line.
func summarizeDay(entries []models.Session) models.DaySummary {
	summary := models.DaySummary{SessionCount: len(entries)}

	var moods []float64
	genreCounts := make(map[string]int)
	for _, e := range entries {
		summary.WorkoutVolume += e.Tonnage
		summary.MusicMinutes += e.PreListenMinutes
		if e.PreTopGenre != nil && *e.PreTopGenre != "" {
			summary.WithMusic++
			genreCounts[*e.PreTopGenre]++
		}
		if e.MoodDelta != nil && isFinite(*e.MoodDelta) {
			summary.WithMood++
			moods = append(moods, *e.MoodDelta)
		}
	}

	summary.WorkoutVolume = round2(summary.WorkoutVolume)
	summary.MusicMinutes = round2(summary.MusicMinutes)

	if len(moods) > 0 {
		avg := round2(mean(moods))
		summary.MoodAvg = &avg
	}

	// Most played genre of the day; ties go alphabetical.
	var topGenre string
	topCount := 0
	for genre, count := range genreCounts {
		if count > topCount || (count == topCount && genre < topGenre) {
			topGenre = genre
			topCount = count
		}
	}
	if topGenre != "" {
		summary.TopGenre = &topGenre
	}

	return summary
}

func (s *insightsService) SoundMap(ctx context.Context, userID string, days int, axis string) (*models.SoundMapResponse, error) {
	if axis == "" {
		axis = AxisEnergyBPM
	}
	if axis != AxisEnergyBPM && axis != AxisGenreEnergy {
		return nil, fmt.Errorf("unknown sound-map axis %q", axis)
	}

	since := time.Now().UTC().AddDate(0, 0, -days)

	sessions, err := s.joinSessions(ctx, userID, since, models.SessionFilters{}, false)
	if err != nil {
		return nil, err
	}

	type cell struct {
		row, col string
		perfSum  float64
		moodSum  float64
		moodN    int
		count    int
	}
	cells := make(map[string]*cell)

	for _, session := range sessions {
		row, col, ok := soundMapCoords(session, axis)
		if !ok {
			continue
		}
		key := cellKey(row, col)
		c, exists := cells[key]
		if !exists {
			c = &cell{row: row, col: col}
			cells[key] = c
		}
		c.count++
		c.perfSum += session.TonnageZ
		if session.MoodDelta != nil && isFinite(*session.MoodDelta) {
			c.moodSum += *session.MoodDelta
			c.moodN++
		}
	}

	out := make([]models.SoundMapCell, 0, len(cells))
	for _, c := range cells {
		mc := models.SoundMapCell{
			Row:      c.row,
			Col:      c.col,
			Count:    c.count,
			MeanPerf: round2(c.perfSum / float64(c.count)),
		}
		if c.moodN > 0 {
			mood := round2(c.moodSum / float64(c.moodN))
			mc.MeanMood = &mood
		}
		out = append(out, mc)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})

	resp := &models.SoundMapResponse{Axis: axis, Cells: out}

	s.recordView(ctx, userID, "sound-map", len(sessions))
	return resp, nil
}

// soundMapCoords resolves a session's grid cell for the axis preset.
// Sessions missing either coordinate are excluded from the grid.
func soundMapCoords(session models.Session, axis string) (row, col string, ok bool) {
	switch axis {
	case AxisGenreEnergy:
		if session.PreTopGenre == nil || *session.PreTopGenre == "" || session.PreEnergy == nil {
			return "", "", false
		}
		return *session.PreTopGenre, EnergyBand(*session.PreEnergy), true
	default:
		if session.PreEnergy == nil || session.PreBPM == nil {
			return "", "", false
		}
		return EnergyBand(*session.PreEnergy), BPMBand(*session.PreBPM), true
	}
}

// recordView writes best-effort usage telemetry. Failures are logged and
// never surfaced.
func (s *insightsService) recordView(ctx context.Context, userID, view string, sample int) {
	if !s.telemetryWrites || s.telemetry == nil {
		return
	}
	if err := s.telemetry.RecordView(ctx, userID, view, sample); err != nil {
		s.log.WithContext(ctx).Warn("failed to record insight view",
			logger.String("view", view), logger.Err(err))
	}
}
