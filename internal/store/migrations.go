package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Authentication (singleton row)
		`CREATE TABLE IF NOT EXISTS auth (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Athlete profile mirror (from /athlete)
		`CREATE TABLE IF NOT EXISTS athletes (
			id INTEGER PRIMARY KEY,
			username TEXT,
			firstname TEXT,
			lastname TEXT,
			city TEXT,
			country TEXT,
			sex TEXT,
			weight REAL,
			profile TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Activity mirror (from /athlete/activities and /activities/{id}).
		// splits_metric and segment_efforts are JSON-serialized text.
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY,
			athlete_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			sport_type TEXT,
			start_date TEXT NOT NULL,
			start_date_local TEXT NOT NULL,
			timezone TEXT,
			distance REAL NOT NULL,
			moving_time INTEGER NOT NULL,
			elapsed_time INTEGER NOT NULL,
			total_elevation_gain REAL,
			average_speed REAL,
			max_speed REAL,
			average_heartrate REAL,
			max_heartrate REAL,
			average_cadence REAL,
			average_watts REAL,
			calories REAL,
			suffer_score INTEGER,
			elev_high REAL,
			elev_low REAL,
			has_heartrate INTEGER NOT NULL,
			map_polyline TEXT,
			splits_metric TEXT,
			segment_efforts TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_start_date ON activities(start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_type ON activities(type)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_athlete ON activities(athlete_id)`,

		// Aggregate stats (singleton row per athlete, from /athletes/{id}/stats).
		// Totals buckets are JSON-serialized text.
		`CREATE TABLE IF NOT EXISTS athlete_stats (
			athlete_id INTEGER PRIMARY KEY,
			biggest_ride_distance REAL,
			biggest_climb_elevation_gain REAL,
			recent_run_totals TEXT,
			recent_ride_totals TEXT,
			recent_swim_totals TEXT,
			ytd_run_totals TEXT,
			ytd_ride_totals TEXT,
			ytd_swim_totals TEXT,
			all_run_totals TEXT,
			all_ride_totals TEXT,
			all_swim_totals TEXT,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sync audit trail (append-only, never consulted for control flow)
		`CREATE TABLE IF NOT EXISTS sync_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sync_type TEXT NOT NULL,
			status TEXT NOT NULL,
			items_synced INTEGER NOT NULL DEFAULT 0,
			error_message TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sync_log_created ON sync_log(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
