package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liftbeat/backend/internal/logger"
	"github.com/liftbeat/backend/internal/models"
)

type stubPerformanceRepo struct {
	rows  []models.PerformanceRow
	err   error
	calls int
}

func (s *stubPerformanceRepo) ListSessions(ctx context.Context, userID string, since time.Time, split *string) ([]models.PerformanceRow, error) {
	s.calls++
	return s.rows, s.err
}

type stubMusicRepo struct {
	rows  []models.MusicContextRow
	err   error
	calls int
}

func (s *stubMusicRepo) ListBySessionIDs(ctx context.Context, sessionIDs []string) ([]models.MusicContextRow, error) {
	s.calls++
	return s.rows, s.err
}

type stubMoodRepo struct {
	rows  []models.MoodDeltaRow
	err   error
	calls int
}

func (s *stubMoodRepo) ListBySessionIDs(ctx context.Context, sessionIDs []string) ([]models.MoodDeltaRow, error) {
	s.calls++
	return s.rows, s.err
}

type stubTelemetryRepo struct {
	views   []string
	samples []int
	err     error
}

func (s *stubTelemetryRepo) RecordView(ctx context.Context, userID, view string, sample int) error {
	s.views = append(s.views, view)
	s.samples = append(s.samples, sample)
	return s.err
}

func perfRow(id string, startedAt time.Time, tonnageZ float64) models.PerformanceRow {
	return models.PerformanceRow{
		SessionID: id,
		UserID:    "u1",
		StartedAt: startedAt,
		Tonnage:   5000,
		TonnageZ:  &tonnageZ,
		SetsCount: 18,
	}
}

func newTestService(perf *stubPerformanceRepo, music *stubMusicRepo, mood *stubMoodRepo, telemetry *stubTelemetryRepo) *insightsService {
	return NewInsightsService(perf, music, mood, telemetry, logger.Default(), telemetry != nil).(*insightsService)
}

func TestJoinSessions_ProjectsAndOrders(t *testing.T) {
	older := time.Date(2026, 8, 20, 7, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC)

	perf := &stubPerformanceRepo{rows: []models.PerformanceRow{
		perfRow("s1", older, 0.5),
		perfRow("s2", newer, -0.2),
	}}
	music := &stubMusicRepo{rows: []models.MusicContextRow{
		{SessionID: "s1", Fields: map[string]any{"energy": 0.8, "top_genre": "Techno", "listen_minutes": 20.0}},
	}}
	mood := &stubMoodRepo{rows: []models.MoodDeltaRow{
		{SessionID: "s2", MoodDelta: models.FlexFloat{Value: 0.4, Valid: true}},
	}}
	svc := newTestService(perf, music, mood, nil)

	sessions, err := svc.joinSessions(context.Background(), "u1", older.AddDate(0, 0, -1), models.SessionFilters{}, false)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	// Newest first by default.
	assert.Equal(t, "s2", sessions[0].SessionID)
	assert.Equal(t, "s1", sessions[1].SessionID)

	// s1 carries music, no mood.
	require.NotNil(t, sessions[1].PreEnergy)
	assert.Equal(t, 0.8, *sessions[1].PreEnergy)
	require.NotNil(t, sessions[1].PreTopGenre)
	assert.Equal(t, "Techno", *sessions[1].PreTopGenre)
	assert.Equal(t, 20.0, sessions[1].PreListenMinutes)
	assert.Nil(t, sessions[1].MoodDelta)

	// s2 carries mood, no music.
	assert.Nil(t, sessions[0].PreEnergy)
	require.NotNil(t, sessions[0].MoodDelta)
	assert.Equal(t, 0.4, *sessions[0].MoodDelta)

	// Ascending on request.
	sessions, err = svc.joinSessions(context.Background(), "u1", older.AddDate(0, 0, -1), models.SessionFilters{}, true)
	require.NoError(t, err)
	assert.Equal(t, "s1", sessions[0].SessionID)
}

func TestJoinSessions_LastWriteWinsOnDuplicates(t *testing.T) {
	at := time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC)
	perf := &stubPerformanceRepo{rows: []models.PerformanceRow{perfRow("s1", at, 0)}}
	music := &stubMusicRepo{rows: []models.MusicContextRow{
		{SessionID: "s1", Fields: map[string]any{"top_genre": "House"}},
		{SessionID: "s1", Fields: map[string]any{"top_genre": "Techno"}},
	}}
	mood := &stubMoodRepo{rows: []models.MoodDeltaRow{
		{SessionID: "s1", MoodDelta: models.FlexFloat{Value: 0.1, Valid: true}},
		{SessionID: "s1", MoodDelta: models.FlexFloat{Value: 0.9, Valid: true}},
	}}
	svc := newTestService(perf, music, mood, nil)

	sessions, err := svc.joinSessions(context.Background(), "u1", at.AddDate(0, 0, -1), models.SessionFilters{}, false)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	require.NotNil(t, sessions[0].PreTopGenre)
	assert.Equal(t, "Techno", *sessions[0].PreTopGenre)
	require.NotNil(t, sessions[0].MoodDelta)
	assert.Equal(t, 0.9, *sessions[0].MoodDelta)
}

func TestJoinSessions_PerformanceFailureIsFatal(t *testing.T) {
	perf := &stubPerformanceRepo{err: errors.New("view offline")}
	music := &stubMusicRepo{}
	mood := &stubMoodRepo{}
	svc := newTestService(perf, music, mood, nil)

	_, err := svc.joinSessions(context.Background(), "u1", time.Now(), models.SessionFilters{}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "performance")
	assert.Equal(t, 0, music.calls)
	assert.Equal(t, 0, mood.calls)
}

func TestJoinSessions_MusicFailureIsFatal(t *testing.T) {
	at := time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC)
	perf := &stubPerformanceRepo{rows: []models.PerformanceRow{perfRow("s1", at, 0)}}
	music := &stubMusicRepo{err: errors.New("enrichment lagging")}
	mood := &stubMoodRepo{}
	svc := newTestService(perf, music, mood, nil)

	_, err := svc.joinSessions(context.Background(), "u1", at.AddDate(0, 0, -1), models.SessionFilters{}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "music context")
}

func TestJoinSessions_MoodFailureDegradesToNil(t *testing.T) {
	at := time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC)
	perf := &stubPerformanceRepo{rows: []models.PerformanceRow{perfRow("s1", at, 0.3)}}
	music := &stubMusicRepo{}
	mood := &stubMoodRepo{err: errors.New("mood view offline")}
	svc := newTestService(perf, music, mood, nil)

	sessions, err := svc.joinSessions(context.Background(), "u1", at.AddDate(0, 0, -1), models.SessionFilters{}, false)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Nil(t, sessions[0].MoodDelta)
}

func TestJoinSessions_EmptyShortCircuits(t *testing.T) {
	perf := &stubPerformanceRepo{}
	music := &stubMusicRepo{}
	mood := &stubMoodRepo{}
	svc := newTestService(perf, music, mood, nil)

	sessions, err := svc.joinSessions(context.Background(), "u1", time.Now(), models.SessionFilters{}, false)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.Equal(t, 0, music.calls)
	assert.Equal(t, 0, mood.calls)
}

func TestJoinSessions_GenreFilterCaseInsensitive(t *testing.T) {
	at := time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC)
	perf := &stubPerformanceRepo{rows: []models.PerformanceRow{
		perfRow("s1", at, 0),
		perfRow("s2", at.Add(time.Hour), 0),
		perfRow("s3", at.Add(2*time.Hour), 0),
	}}
	music := &stubMusicRepo{rows: []models.MusicContextRow{
		{SessionID: "s1", Fields: map[string]any{"top_genre": "TECHNO"}},
		{SessionID: "s2", Fields: map[string]any{"top_genre": "House"}},
	}}
	mood := &stubMoodRepo{}
	svc := newTestService(perf, music, mood, nil)

	filters := models.SessionFilters{Genre: sptr("techno")}
	sessions, err := svc.joinSessions(context.Background(), "u1", at.AddDate(0, 0, -1), filters, false)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].SessionID)

	// Filtering an already-filtered set changes nothing.
	refiltered := sessions[:0:0]
	for _, s := range sessions {
		if matchesFilters(s, filters) {
			refiltered = append(refiltered, s)
		}
	}
	assert.Equal(t, sessions, refiltered)
}

func TestSummary_ShapeAndTelemetry(t *testing.T) {
	at := time.Now().UTC().AddDate(0, 0, -2)
	perf := &stubPerformanceRepo{rows: []models.PerformanceRow{
		perfRow("s1", at, 0.5),
		perfRow("s2", at.Add(time.Hour), -0.5),
	}}
	music := &stubMusicRepo{rows: []models.MusicContextRow{
		{SessionID: "s1", Fields: map[string]any{"top_genre": "Techno", "energy": 0.8}},
		{SessionID: "s2", Fields: map[string]any{"top_genre": "House", "energy": 0.3}},
	}}
	mood := &stubMoodRepo{}
	telemetry := &stubTelemetryRepo{}
	svc := newTestService(perf, music, mood, telemetry)

	resp, err := svc.Summary(context.Background(), "u1", 30, models.SessionFilters{})
	require.NoError(t, err)

	assert.Equal(t, 30, resp.Filters.Days)
	assert.Equal(t, 2, resp.Filters.Sample)
	assert.GreaterOrEqual(t, resp.Headline.Score, -1.0)
	assert.LessOrEqual(t, resp.Headline.Score, 1.0)
	assert.Equal(t, ConfidenceLegend, resp.Recommendations.Notes)

	// Techno outperformed, House dragged.
	require.Len(t, resp.Boosters.Genres, 1)
	assert.Equal(t, "Techno", resp.Boosters.Genres[0].Label)
	require.Len(t, resp.Drainers.Genres, 1)
	assert.Equal(t, "House", resp.Drainers.Genres[0].Label)

	require.Len(t, telemetry.views, 1)
	assert.Equal(t, "summary", telemetry.views[0])
	assert.Equal(t, 2, telemetry.samples[0])
}

func TestSummary_TelemetryFailureIsSwallowed(t *testing.T) {
	at := time.Now().UTC().AddDate(0, 0, -2)
	perf := &stubPerformanceRepo{rows: []models.PerformanceRow{perfRow("s1", at, 0)}}
	telemetry := &stubTelemetryRepo{err: errors.New("insert denied")}
	svc := newTestService(perf, &stubMusicRepo{}, &stubMoodRepo{}, telemetry)

	_, err := svc.Summary(context.Background(), "u1", 30, models.SessionFilters{})
	require.NoError(t, err)
}

func TestDigest_GroupsByUTCDay(t *testing.T) {
	day1 := time.Date(2026, 8, 24, 23, 30, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 25, 0, 30, 0, 0, time.UTC)

	perf := &stubPerformanceRepo{rows: []models.PerformanceRow{
		perfRow("s1", day1, 0.2),
		perfRow("s2", day2, 0.4),
		perfRow("s3", day2.Add(10*time.Hour), -0.1),
	}}
	music := &stubMusicRepo{rows: []models.MusicContextRow{
		{SessionID: "s2", Fields: map[string]any{"top_genre": "Techno", "listen_minutes": 15.0}},
		{SessionID: "s3", Fields: map[string]any{"top_genre": "Techno", "listen_minutes": 10.0}},
	}}
	mood := &stubMoodRepo{rows: []models.MoodDeltaRow{
		{SessionID: "s2", MoodDelta: models.FlexFloat{Value: 0.6, Valid: true}},
		{SessionID: "s3", MoodDelta: models.FlexFloat{Value: 0.2, Valid: true}},
	}}
	svc := newTestService(perf, music, mood, nil)

	resp, err := svc.Digest(context.Background(), "u1", 30)
	require.NoError(t, err)

	require.Len(t, resp.Days, 2)
	assert.Equal(t, []string{"2026-08-25", "2026-08-24"}, resp.Order)

	day := resp.Days["2026-08-25"]
	assert.Equal(t, 2, day.Summary.SessionCount)
	assert.Equal(t, 2, day.Summary.WithMusic)
	assert.Equal(t, 2, day.Summary.WithMood)
	assert.Equal(t, 10000.0, day.Summary.WorkoutVolume)
	assert.Equal(t, 25.0, day.Summary.MusicMinutes)
	require.NotNil(t, day.Summary.MoodAvg)
	assert.Equal(t, 0.4, *day.Summary.MoodAvg)
	require.NotNil(t, day.Summary.TopGenre)
	assert.Equal(t, "Techno", *day.Summary.TopGenre)
	require.Len(t, day.Entries, 2)

	prev := resp.Days["2026-08-24"]
	assert.Equal(t, 1, prev.Summary.SessionCount)
	assert.Nil(t, prev.Summary.MoodAvg)
	assert.Nil(t, prev.Summary.TopGenre)
}

func TestSoundMap_EnergyBPMGrid(t *testing.T) {
	at := time.Now().UTC().AddDate(0, 0, -1)
	perf := &stubPerformanceRepo{rows: []models.PerformanceRow{
		perfRow("s1", at, 0.4),
		perfRow("s2", at.Add(time.Hour), 0.6),
		perfRow("s3", at.Add(2*time.Hour), -1.0),
	}}
	music := &stubMusicRepo{rows: []models.MusicContextRow{
		{SessionID: "s1", Fields: map[string]any{"energy": 0.8, "bpm": 130.0}},
		{SessionID: "s2", Fields: map[string]any{"energy": 0.9, "bpm": 132.0}},
		// s3 has no BPM, so it cannot land on the grid.
		{SessionID: "s3", Fields: map[string]any{"top_genre": "Ambient"}},
	}}
	mood := &stubMoodRepo{rows: []models.MoodDeltaRow{
		{SessionID: "s1", MoodDelta: models.FlexFloat{Value: 0.5, Valid: true}},
	}}
	svc := newTestService(perf, music, mood, nil)

	resp, err := svc.SoundMap(context.Background(), "u1", 30, "")
	require.NoError(t, err)
	assert.Equal(t, AxisEnergyBPM, resp.Axis)

	require.Len(t, resp.Cells, 1)
	cell := resp.Cells[0]
	assert.Equal(t, "high", cell.Row)
	assert.Equal(t, "128-135", cell.Col)
	assert.Equal(t, 2, cell.Count)
	assert.Equal(t, 0.5, cell.MeanPerf)
	require.NotNil(t, cell.MeanMood)
	assert.Equal(t, 0.5, *cell.MeanMood)
}

func TestSoundMap_GenreEnergyGrid(t *testing.T) {
	at := time.Now().UTC().AddDate(0, 0, -1)
	perf := &stubPerformanceRepo{rows: []models.PerformanceRow{
		perfRow("s1", at, 0.4),
		perfRow("s2", at.Add(time.Hour), 0.2),
	}}
	music := &stubMusicRepo{rows: []models.MusicContextRow{
		{SessionID: "s1", Fields: map[string]any{"top_genre": "Techno", "energy": 0.8}},
		{SessionID: "s2", Fields: map[string]any{"top_genre": "Ambient", "energy": 0.2}},
	}}
	svc := newTestService(perf, music, &stubMoodRepo{}, nil)

	resp, err := svc.SoundMap(context.Background(), "u1", 30, AxisGenreEnergy)
	require.NoError(t, err)

	require.Len(t, resp.Cells, 2)
	// Sorted by row then col.
	assert.Equal(t, "Ambient", resp.Cells[0].Row)
	assert.Equal(t, "low", resp.Cells[0].Col)
	assert.Nil(t, resp.Cells[0].MeanMood)
	assert.Equal(t, "Techno", resp.Cells[1].Row)
	assert.Equal(t, "high", resp.Cells[1].Col)
}

func TestSoundMap_UnknownAxis(t *testing.T) {
	svc := newTestService(&stubPerformanceRepo{}, &stubMusicRepo{}, &stubMoodRepo{}, nil)

	_, err := svc.SoundMap(context.Background(), "u1", 30, "mood-tempo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "axis")
}
