package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// UpsertAthleteStats inserts or replaces the singleton stats row for an
// athlete. Totals buckets are JSON-serialized per column.
func (s *Store) UpsertAthleteStats(st *AthleteStats) error {
	totals := []Totals{
		st.RecentRunTotals, st.RecentRideTotals, st.RecentSwimTotals,
		st.YTDRunTotals, st.YTDRideTotals, st.YTDSwimTotals,
		st.AllRunTotals, st.AllRideTotals, st.AllSwimTotals,
	}
	encoded := make([]any, len(totals))
	for i, t := range totals {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encoding stats for athlete %d: %w", st.AthleteID, err)
		}
		encoded[i] = string(data)
	}

	args := append([]any{st.AthleteID, st.BiggestRideDistance, st.BiggestClimbElevationGain}, encoded...)
	_, err := s.db.Exec(`
		INSERT INTO athlete_stats (
			athlete_id, biggest_ride_distance, biggest_climb_elevation_gain,
			recent_run_totals, recent_ride_totals, recent_swim_totals,
			ytd_run_totals, ytd_ride_totals, ytd_swim_totals,
			all_run_totals, all_ride_totals, all_swim_totals, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(athlete_id) DO UPDATE SET
			biggest_ride_distance = excluded.biggest_ride_distance,
			biggest_climb_elevation_gain = excluded.biggest_climb_elevation_gain,
			recent_run_totals = excluded.recent_run_totals,
			recent_ride_totals = excluded.recent_ride_totals,
			recent_swim_totals = excluded.recent_swim_totals,
			ytd_run_totals = excluded.ytd_run_totals,
			ytd_ride_totals = excluded.ytd_ride_totals,
			ytd_swim_totals = excluded.ytd_swim_totals,
			all_run_totals = excluded.all_run_totals,
			all_ride_totals = excluded.all_ride_totals,
			all_swim_totals = excluded.all_swim_totals,
			updated_at = CURRENT_TIMESTAMP
	`, args...)
	return err
}

// GetAthleteStats retrieves the stats row for an athlete.
func (s *Store) GetAthleteStats(athleteID int64) (*AthleteStats, error) {
	row := s.db.QueryRow(`
		SELECT athlete_id, biggest_ride_distance, biggest_climb_elevation_gain,
			recent_run_totals, recent_ride_totals, recent_swim_totals,
			ytd_run_totals, ytd_ride_totals, ytd_swim_totals,
			all_run_totals, all_ride_totals, all_swim_totals
		FROM athlete_stats
		WHERE athlete_id = ?
	`, athleteID)

	var st AthleteStats
	var ride, climb sql.NullFloat64
	cols := make([]sql.NullString, 9)
	err := row.Scan(
		&st.AthleteID, &ride, &climb,
		&cols[0], &cols[1], &cols[2],
		&cols[3], &cols[4], &cols[5],
		&cols[6], &cols[7], &cols[8],
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatsNotFound
	}
	if err != nil {
		return nil, err
	}

	st.BiggestRideDistance = ride.Float64
	st.BiggestClimbElevationGain = climb.Float64

	targets := []*Totals{
		&st.RecentRunTotals, &st.RecentRideTotals, &st.RecentSwimTotals,
		&st.YTDRunTotals, &st.YTDRideTotals, &st.YTDSwimTotals,
		&st.AllRunTotals, &st.AllRideTotals, &st.AllSwimTotals,
	}
	for i, col := range cols {
		if !col.Valid || col.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(col.String), targets[i]); err != nil {
			return nil, fmt.Errorf("decoding stats for athlete %d: %w", athleteID, err)
		}
	}

	return &st, nil
}
