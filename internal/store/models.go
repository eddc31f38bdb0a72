package store

import "time"

// Auth represents OAuth tokens for Strava API access
type Auth struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Athlete is the mirrored athlete profile.
type Athlete struct {
	ID        int64
	Username  string
	Firstname string
	Lastname  string
	City      string
	Country   string
	Sex       string
	Weight    *float64 // kg, nullable
	Profile   string
}

// Activity is a mirrored activity row. Optional measurements are
// pointers so "no data" stays distinct from a measured zero.
type Activity struct {
	ID                 int64
	AthleteID          int64
	Name               string
	Type               string
	SportType          string
	StartDate          time.Time
	StartDateLocal     time.Time
	Timezone           string
	Distance           float64 // meters
	MovingTime         int     // seconds
	ElapsedTime        int     // seconds
	TotalElevationGain float64
	AverageSpeed       float64 // m/s
	MaxSpeed           float64 // m/s
	AverageHeartrate   *float64
	MaxHeartrate       *float64
	AverageCadence     *float64
	AverageWatts       *float64
	Calories           *float64
	SufferScore        *int
	ElevHigh           *float64
	ElevLow            *float64
	HasHeartrate       bool
	MapPolyline        string
	SplitsMetric       []Split
	SegmentEfforts     []SegmentEffort
}

// Split mirrors a per-kilometer split; stored serialized in the
// splits_metric column.
type Split struct {
	Split               int     `json:"split"`
	Distance            float64 `json:"distance"`
	ElapsedTime         int     `json:"elapsed_time"`
	MovingTime          int     `json:"moving_time"`
	AverageSpeed        float64 `json:"average_speed"`
	ElevationDifference float64 `json:"elevation_difference"`
	PaceZone            int     `json:"pace_zone"`
}

// SegmentEffort mirrors a segment effort; stored serialized in the
// segment_efforts column.
type SegmentEffort struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Distance    float64   `json:"distance"`
	ElapsedTime int       `json:"elapsed_time"`
	MovingTime  int       `json:"moving_time"`
	StartDate   time.Time `json:"start_date"`
	PRRank      *int      `json:"pr_rank"`
}

// Totals is one aggregate bucket within athlete stats; stored
// serialized per bucket.
type Totals struct {
	Count            int     `json:"count"`
	Distance         float64 `json:"distance"`
	MovingTime       int     `json:"moving_time"`
	ElapsedTime      int     `json:"elapsed_time"`
	ElevationGain    float64 `json:"elevation_gain"`
	AchievementCount int     `json:"achievement_count"`
}

// AthleteStats is the mirrored aggregate stats row (one per athlete).
type AthleteStats struct {
	AthleteID                 int64
	BiggestRideDistance       float64
	BiggestClimbElevationGain float64
	RecentRunTotals           Totals
	RecentRideTotals          Totals
	RecentSwimTotals          Totals
	YTDRunTotals              Totals
	YTDRideTotals             Totals
	YTDSwimTotals             Totals
	AllRunTotals              Totals
	AllRideTotals             Totals
	AllSwimTotals             Totals
}

// Sync log statuses.
const (
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// SyncLogEntry is one append-only audit record for a sync attempt.
type SyncLogEntry struct {
	ID           int64
	SyncType     string
	Status       string
	ItemsSynced  int
	ErrorMessage *string
	CreatedAt    time.Time
}
