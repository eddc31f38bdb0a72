package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"stridedash/internal/store"
	"stridedash/internal/strava"
)

// Sync types recorded in the sync log.
const (
	SyncTypeAthlete      = "athlete"
	SyncTypeActivities   = "activities"
	SyncTypeActivity     = "activity"
	SyncTypeAthleteStats = "athlete_stats"
	SyncTypeFull         = "full_sync"
)

const (
	// defaultSyncLimit bounds SyncAll's activity pass when a full
	// history sync wasn't requested.
	defaultSyncLimit = 200
	// pagesPerPause / pagePause throttle long backfills beyond the
	// queue's own pacing.
	pagesPerPause = 10
	pagePause     = time.Second
)

// Options tunes a SyncService.
type Options struct {
	// PageSize is the activities-per-page fetched during sync (API
	// ceiling 30). Zero means 30.
	PageSize int
	// FreshnessWindow is how recent the newest stored activity must be
	// for an un-forced, limited sync to be skipped. Zero means 5m.
	FreshnessWindow time.Duration
}

// SyncService mirrors upstream data into the local store. Fetches
// bypass the response cache, writes are idempotent upserts, and every
// top-level operation leaves a sync log record.
type SyncService struct {
	client    *strava.Client
	store     *store.Store
	log       zerolog.Logger
	pageSize  int
	freshness time.Duration
}

// NewSyncService creates a sync service.
func NewSyncService(client *strava.Client, st *store.Store, log zerolog.Logger, opts Options) *SyncService {
	if opts.PageSize <= 0 || opts.PageSize > 30 {
		opts.PageSize = 30
	}
	if opts.FreshnessWindow <= 0 {
		opts.FreshnessWindow = 5 * time.Minute
	}
	return &SyncService{
		client:    client,
		store:     st,
		log:       log,
		pageSize:  opts.PageSize,
		freshness: opts.FreshnessWindow,
	}
}

// SyncAthlete fetches the athlete profile and mirrors it.
func (s *SyncService) SyncAthlete(ctx context.Context) (*store.Athlete, error) {
	athlete, err := s.client.GetAthlete(ctx, strava.NoCache())
	if err != nil {
		s.recordSync(SyncTypeAthlete, 0, err)
		return nil, fmt.Errorf("fetching athlete: %w", err)
	}

	row := convertAthlete(athlete)
	if err := s.store.UpsertAthlete(row); err != nil {
		s.recordSync(SyncTypeAthlete, 0, err)
		return nil, fmt.Errorf("storing athlete %d: %w", athlete.ID, err)
	}

	s.recordSync(SyncTypeAthlete, 1, nil)
	return row, nil
}

// SyncActivity fetches a single activity with full detail and mirrors it.
func (s *SyncService) SyncActivity(ctx context.Context, id int64) error {
	activity, err := s.client.GetActivity(ctx, id, strava.NoCache())
	if err != nil {
		s.recordSync(SyncTypeActivity, 0, err)
		return fmt.Errorf("fetching activity %d: %w", id, err)
	}

	if err := s.store.UpsertActivity(convertActivity(*activity)); err != nil {
		s.recordSync(SyncTypeActivity, 0, err)
		return fmt.Errorf("storing activity %d: %w", id, err)
	}

	s.recordSync(SyncTypeActivity, 1, nil)
	return nil
}

// SyncAthleteStats fetches aggregate stats for an athlete and mirrors them.
func (s *SyncService) SyncAthleteStats(ctx context.Context, athleteID int64) error {
	stats, err := s.client.GetAthleteStats(ctx, athleteID, strava.NoCache())
	if err != nil {
		s.recordSync(SyncTypeAthleteStats, 0, err)
		return fmt.Errorf("fetching stats for athlete %d: %w", athleteID, err)
	}

	if err := s.store.UpsertAthleteStats(convertStats(athleteID, stats)); err != nil {
		s.recordSync(SyncTypeAthleteStats, 0, err)
		return fmt.Errorf("storing stats for athlete %d: %w", athleteID, err)
	}

	s.recordSync(SyncTypeAthleteStats, 1, nil)
	return nil
}

// SyncActivities pages through the athlete's history and mirrors each
// activity as it arrives, so memory stays bounded regardless of history
// size. limit 0 means sync everything. Unless forced (or limit 0), the
// sync is skipped when the newest stored activity is within the
// freshness window.
func (s *SyncService) SyncActivities(ctx context.Context, limit int, force bool) (int, error) {
	if !force && limit != 0 {
		latest, err := s.store.LatestActivityDate()
		if err != nil {
			return 0, fmt.Errorf("checking latest activity: %w", err)
		}
		if !latest.IsZero() && time.Since(latest) < s.freshness {
			s.log.Debug().Time("latest", latest).Msg("activities fresh, skipping sync")
			return 0, nil
		}
	}

	synced := 0
	page := 1

	for {
		select {
		case <-ctx.Done():
			s.recordSync(SyncTypeActivities, synced, ctx.Err())
			return synced, ctx.Err()
		default:
		}

		activities, err := s.client.GetActivities(ctx, s.pageSize, page, strava.NoCache())
		if err != nil {
			err = fmt.Errorf("fetching page %d: %w", page, err)
			s.recordSync(SyncTypeActivities, synced, err)
			return synced, err
		}

		for _, a := range activities {
			if err := s.store.UpsertActivity(convertActivity(a)); err != nil {
				err = fmt.Errorf("storing activity %d: %w", a.ID, err)
				s.recordSync(SyncTypeActivities, synced, err)
				return synced, err
			}
			synced++
			if limit > 0 && synced >= limit {
				s.recordSync(SyncTypeActivities, synced, nil)
				return synced, nil
			}
		}

		if len(activities) < s.pageSize {
			break // end of history
		}

		page++
		if (page-1)%pagesPerPause == 0 {
			select {
			case <-time.After(pagePause):
			case <-ctx.Done():
				s.recordSync(SyncTypeActivities, synced, ctx.Err())
				return synced, ctx.Err()
			}
		}
	}

	s.recordSync(SyncTypeActivities, synced, nil)
	return synced, nil
}

// SyncAllResult aggregates a SyncAll run.
type SyncAllResult struct {
	AthleteSynced    bool
	ActivitiesSynced int
	StatsSynced      bool
	Errors           []error
}

// SyncAll runs the athlete, activities and stats syncs sequentially in
// a single activity pass. syncAllActivities lifts the bound entirely;
// otherwise limit > 0 bounds the pass and 0 means defaultSyncLimit.
// Each sub-sync's failure is swallowed and collected so an outage on
// one endpoint doesn't block the others.
func (s *SyncService) SyncAll(ctx context.Context, athleteID int64, limit int, force, syncAllActivities bool) *SyncAllResult {
	result := &SyncAllResult{}

	if athlete, err := s.SyncAthlete(ctx); err != nil {
		result.Errors = append(result.Errors, err)
		s.log.Warn().Err(err).Msg("athlete sync failed, continuing")
	} else {
		result.AthleteSynced = true
		if athleteID == 0 {
			athleteID = athlete.ID
		}
	}

	if syncAllActivities {
		limit = 0
	} else if limit <= 0 {
		limit = defaultSyncLimit
	}
	count, err := s.SyncActivities(ctx, limit, force)
	result.ActivitiesSynced = count
	if err != nil {
		result.Errors = append(result.Errors, err)
		s.log.Warn().Err(err).Msg("activity sync failed, continuing")
	}

	if athleteID != 0 {
		if err := s.SyncAthleteStats(ctx, athleteID); err != nil {
			result.Errors = append(result.Errors, err)
			s.log.Warn().Err(err).Msg("stats sync failed, continuing")
		} else {
			result.StatsSynced = true
		}
	}

	// aggregate record on top of the per-step ones
	s.recordSync(SyncTypeFull, result.ActivitiesSynced, errors.Join(result.Errors...))

	return result
}

// recordSync appends the audit record for one sync attempt. A failure
// to write the log is itself only logged; it never fails the sync.
func (s *SyncService) recordSync(syncType string, items int, syncErr error) {
	entry := &store.SyncLogEntry{
		SyncType:    syncType,
		Status:      store.SyncStatusSuccess,
		ItemsSynced: items,
	}
	if syncErr != nil {
		entry.Status = store.SyncStatusError
		msg := syncErr.Error()
		entry.ErrorMessage = &msg
	}
	if err := s.store.AppendSyncLog(entry); err != nil {
		s.log.Error().Err(err).Str("sync_type", syncType).Msg("writing sync log failed")
	}
}
