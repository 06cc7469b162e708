package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/liftbeat/backend/internal/logger"
	"github.com/liftbeat/backend/internal/models"
)

// joinSessions rebuilds the per-request session view: one Session per
// performance row, enriched with normalized music context and mood delta
// where available.
//
// Performance is the primary collection, so its failure fails the
// request. Music context and mood deltas are fetched concurrently; a
// music failure is also fatal, but a mood failure only logs a warning
// and leaves every MoodDelta nil.
func (s *insightsService) joinSessions(ctx context.Context, userID string, since time.Time, filters models.SessionFilters, ascending bool) ([]models.Session, error) {
	perfRows, err := s.performance.ListSessions(ctx, userID, since, filters.Split)
	if err != nil {
		return nil, fmt.Errorf("fetching performance sessions: %w", err)
	}
	if len(perfRows) == 0 {
		return []models.Session{}, nil
	}

	ids := make([]string, 0, len(perfRows))
	for _, row := range perfRows {
		ids = append(ids, row.SessionID)
	}

	var (
		musicRows []models.MusicContextRow
		moodRows  []models.MoodDeltaRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.music.ListBySessionIDs(gctx, ids)
		if err != nil {
			return fmt.Errorf("fetching music context: %w", err)
		}
		musicRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.mood.ListBySessionIDs(gctx, ids)
		if err != nil {
			// Mood data is optional. Sessions render without deltas.
			s.log.WithContext(ctx).Warn("mood delta fetch failed, continuing without mood data",
				logger.Err(err))
			return nil
		}
		moodRows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Index sidecar rows by session id. Last write wins on duplicates,
	// matching the upstream views' own dedupe behavior.
	musicByID := make(map[string]PreContext, len(musicRows))
	for _, row := range musicRows {
		if row.SessionID == "" {
			continue
		}
		musicByID[row.SessionID] = NormalizeMusicContext(row.Fields)
	}
	moodByID := make(map[string]*float64, len(moodRows))
	for _, row := range moodRows {
		if row.SessionID == "" {
			continue
		}
		moodByID[row.SessionID] = row.MoodDelta.ToPtr()
	}

	sessions := make([]models.Session, 0, len(perfRows))
	for _, row := range perfRows {
		session := models.Session{
			SessionID:  row.SessionID,
			UserID:     row.UserID,
			StartedAt:  row.StartedAt,
			SplitLabel: row.SplitLabel,
			Tonnage:    row.Tonnage,
			SetsCount:  row.SetsCount,
		}
		if row.TonnageZ != nil {
			session.TonnageZ = *row.TonnageZ
		}
		if pre, ok := musicByID[row.SessionID]; ok {
			session.PreEnergy = pre.Energy
			session.PreValence = pre.Valence
			session.PreTopGenre = pre.TopGenre
			session.PreTopArtist = pre.TopArtist
			session.PreBPM = pre.BPM
			session.PreListenMinutes = pre.ListenMinutes
		}
		if delta, ok := moodByID[row.SessionID]; ok {
			session.MoodDelta = delta
		}

		if !matchesFilters(session, filters) {
			continue
		}
		sessions = append(sessions, session)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if ascending {
			return sessions[i].StartedAt.Before(sessions[j].StartedAt)
		}
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})

	return sessions, nil
}

// matchesFilters applies the post-join genre and artist filters. Matching
// is case-insensitive; a filtered session with no label never matches.
func matchesFilters(session models.Session, filters models.SessionFilters) bool {
	if filters.Genre != nil && *filters.Genre != "" {
		if session.PreTopGenre == nil || !strings.EqualFold(*session.PreTopGenre, *filters.Genre) {
			return false
		}
	}
	if filters.Artist != nil && *filters.Artist != "" {
		if session.PreTopArtist == nil || !strings.EqualFold(*session.PreTopArtist, *filters.Artist) {
			return false
		}
	}
	return true
}
