package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

const activityColumns = `id, athlete_id, name, type, sport_type, start_date, start_date_local,
	timezone, distance, moving_time, elapsed_time, total_elevation_gain,
	average_speed, max_speed, average_heartrate, max_heartrate, average_cadence,
	average_watts, calories, suffer_score, elev_high, elev_low, has_heartrate,
	map_polyline, splits_metric, segment_efforts`

// UpsertActivity inserts or updates an activity keyed by its upstream
// id. Calling it twice with the same id leaves exactly one row holding
// the second call's values.
func (s *Store) UpsertActivity(a *Activity) error {
	splits, err := marshalJSONColumn(a.SplitsMetric)
	if err != nil {
		return fmt.Errorf("encoding splits for activity %d: %w", a.ID, err)
	}
	efforts, err := marshalJSONColumn(a.SegmentEfforts)
	if err != nil {
		return fmt.Errorf("encoding segment efforts for activity %d: %w", a.ID, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO activities (
			id, athlete_id, name, type, sport_type, start_date, start_date_local,
			timezone, distance, moving_time, elapsed_time, total_elevation_gain,
			average_speed, max_speed, average_heartrate, max_heartrate, average_cadence,
			average_watts, calories, suffer_score, elev_high, elev_low, has_heartrate,
			map_polyline, splits_metric, segment_efforts, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			athlete_id = excluded.athlete_id,
			name = excluded.name,
			type = excluded.type,
			sport_type = excluded.sport_type,
			start_date = excluded.start_date,
			start_date_local = excluded.start_date_local,
			timezone = excluded.timezone,
			distance = excluded.distance,
			moving_time = excluded.moving_time,
			elapsed_time = excluded.elapsed_time,
			total_elevation_gain = excluded.total_elevation_gain,
			average_speed = excluded.average_speed,
			max_speed = excluded.max_speed,
			average_heartrate = excluded.average_heartrate,
			max_heartrate = excluded.max_heartrate,
			average_cadence = excluded.average_cadence,
			average_watts = excluded.average_watts,
			calories = excluded.calories,
			suffer_score = excluded.suffer_score,
			elev_high = excluded.elev_high,
			elev_low = excluded.elev_low,
			has_heartrate = excluded.has_heartrate,
			map_polyline = excluded.map_polyline,
			splits_metric = excluded.splits_metric,
			segment_efforts = excluded.segment_efforts,
			updated_at = CURRENT_TIMESTAMP
	`,
		a.ID, a.AthleteID, a.Name, a.Type, a.SportType,
		a.StartDate.UTC().Format(time.RFC3339), a.StartDateLocal.Format(time.RFC3339),
		a.Timezone, a.Distance, a.MovingTime, a.ElapsedTime, a.TotalElevationGain,
		a.AverageSpeed, a.MaxSpeed, a.AverageHeartrate, a.MaxHeartrate, a.AverageCadence,
		a.AverageWatts, a.Calories, a.SufferScore, a.ElevHigh, a.ElevLow, boolToInt(a.HasHeartrate),
		a.MapPolyline, splits, efforts,
	)
	return err
}

// GetActivity retrieves an activity by ID
func (s *Store) GetActivity(id int64) (*Activity, error) {
	row := s.db.QueryRow(`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	return a, err
}

// ListActivities returns activities ordered by start date descending
func (s *Store) ListActivities(limit, offset int) ([]Activity, error) {
	rows, err := s.db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		ORDER BY start_date DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows.Scan)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

// LatestActivityDate returns the start date of the most recent stored
// activity, or the zero time when none exist.
func (s *Store) LatestActivityDate() (time.Time, error) {
	var startDate sql.NullString
	err := s.db.QueryRow(`SELECT MAX(start_date) FROM activities`).Scan(&startDate)
	if err != nil {
		return time.Time{}, err
	}
	if !startDate.Valid || startDate.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, startDate.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing latest start_date %q: %w", startDate.String, err)
	}
	return t, nil
}

// CountActivities returns the total number of activities
func (s *Store) CountActivities() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM activities`).Scan(&count)
	return count, err
}

// scanActivity maps one row onto an Activity, restoring nullable
// measurements and the JSON-serialized nested collections.
func scanActivity(scan func(...any) error) (*Activity, error) {
	var a Activity
	var startDate, startDateLocal string
	var sportType, timezone, polyline sql.NullString
	var totalElevGain, avgSpeed, maxSpeed sql.NullFloat64
	var avgHR, maxHR, avgCadence, avgWatts, calories, elevHigh, elevLow sql.NullFloat64
	var sufferScore sql.NullInt64
	var hasHR int
	var splits, efforts sql.NullString

	err := scan(
		&a.ID, &a.AthleteID, &a.Name, &a.Type, &sportType, &startDate, &startDateLocal,
		&timezone, &a.Distance, &a.MovingTime, &a.ElapsedTime, &totalElevGain,
		&avgSpeed, &maxSpeed, &avgHR, &maxHR, &avgCadence,
		&avgWatts, &calories, &sufferScore, &elevHigh, &elevLow, &hasHR,
		&polyline, &splits, &efforts,
	)
	if err != nil {
		return nil, err
	}

	if a.StartDate, err = time.Parse(time.RFC3339, startDate); err != nil {
		return nil, fmt.Errorf("parsing start_date %q: %w", startDate, err)
	}
	if a.StartDateLocal, err = time.Parse(time.RFC3339, startDateLocal); err != nil {
		return nil, fmt.Errorf("parsing start_date_local %q: %w", startDateLocal, err)
	}

	a.SportType = sportType.String
	a.Timezone = timezone.String
	a.MapPolyline = polyline.String
	a.TotalElevationGain = totalElevGain.Float64
	a.AverageSpeed = avgSpeed.Float64
	a.MaxSpeed = maxSpeed.Float64
	a.AverageHeartrate = nullToPtr(avgHR)
	a.MaxHeartrate = nullToPtr(maxHR)
	a.AverageCadence = nullToPtr(avgCadence)
	a.AverageWatts = nullToPtr(avgWatts)
	a.Calories = nullToPtr(calories)
	a.SufferScore = nullIntToPtr(sufferScore)
	a.ElevHigh = nullToPtr(elevHigh)
	a.ElevLow = nullToPtr(elevLow)
	a.HasHeartrate = hasHR == 1

	if err := unmarshalJSONColumn(splits, &a.SplitsMetric); err != nil {
		return nil, fmt.Errorf("decoding splits for activity %d: %w", a.ID, err)
	}
	if err := unmarshalJSONColumn(efforts, &a.SegmentEfforts); err != nil {
		return nil, fmt.Errorf("decoding segment efforts for activity %d: %w", a.ID, err)
	}

	return &a, nil
}

// marshalJSONColumn serializes a nested collection for a text column;
// empty collections store NULL.
func marshalJSONColumn(v any) (any, error) {
	switch col := v.(type) {
	case []Split:
		if len(col) == 0 {
			return nil, nil
		}
	case []SegmentEffort:
		if len(col) == 0 {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func unmarshalJSONColumn(col sql.NullString, out any) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), out)
}

func nullToPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nullIntToPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
