package strava

import "time"

// Athlete represents the authenticated athlete's profile.
type Athlete struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	Firstname string   `json:"firstname"`
	Lastname  string   `json:"lastname"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Sex       string   `json:"sex"`
	Weight    *float64 `json:"weight"` // kg, nil when unset
	Profile   string   `json:"profile"`
}

// ActivityAthlete is the minimal athlete reference embedded in activities.
type ActivityAthlete struct {
	ID int64 `json:"id"`
}

// Activity represents an activity from the API. Summary and detail
// responses share this shape; detail responses additionally populate
// splits and segment efforts. Optional measurements are pointers so an
// absent key decodes to nil while a measured zero or negative value
// (elev_low below sea level) is kept.
type Activity struct {
	ID                 int64           `json:"id"`
	Athlete            ActivityAthlete `json:"athlete"`
	Name               string          `json:"name"`
	Type               string          `json:"type"`
	SportType          string          `json:"sport_type"`
	StartDate          time.Time       `json:"start_date"`
	StartDateLocal     time.Time       `json:"start_date_local"`
	Timezone           string          `json:"timezone"`
	Distance           float64         `json:"distance"`             // meters
	MovingTime         int             `json:"moving_time"`          // seconds
	ElapsedTime        int             `json:"elapsed_time"`         // seconds
	TotalElevationGain float64         `json:"total_elevation_gain"` // meters
	AverageSpeed       float64         `json:"average_speed"`        // m/s
	MaxSpeed           float64         `json:"max_speed"`            // m/s
	AverageHeartrate   *float64        `json:"average_heartrate"`    // bpm
	MaxHeartrate       *float64        `json:"max_heartrate"`        // bpm
	AverageCadence     *float64        `json:"average_cadence"`      // rpm or spm
	AverageWatts       *float64        `json:"average_watts"`
	Calories           *float64        `json:"calories"`
	SufferScore        *int            `json:"suffer_score"`
	ElevHigh           *float64        `json:"elev_high"`
	ElevLow            *float64        `json:"elev_low"`
	HasHeartrate       bool            `json:"has_heartrate"`
	Map                ActivityMap     `json:"map"`
	SplitsMetric       []Split         `json:"splits_metric"`
	SegmentEfforts     []SegmentEffort `json:"segment_efforts"`
}

// ActivityMap holds the encoded route polylines.
type ActivityMap struct {
	ID              string `json:"id"`
	SummaryPolyline string `json:"summary_polyline"`
}

// Split is a per-kilometer split within an activity.
type Split struct {
	Split               int     `json:"split"`
	Distance            float64 `json:"distance"`
	ElapsedTime         int     `json:"elapsed_time"`
	MovingTime          int     `json:"moving_time"`
	AverageSpeed        float64 `json:"average_speed"`
	ElevationDifference float64 `json:"elevation_difference"`
	PaceZone            int     `json:"pace_zone"`
}

// SegmentEffort is an effort on a segment within an activity.
type SegmentEffort struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Distance    float64   `json:"distance"`
	ElapsedTime int       `json:"elapsed_time"`
	MovingTime  int       `json:"moving_time"`
	StartDate   time.Time `json:"start_date"`
	PRRank      *int      `json:"pr_rank"`
}

// AthleteStats is the aggregate stats response for an athlete.
type AthleteStats struct {
	BiggestRideDistance       float64        `json:"biggest_ride_distance"`
	BiggestClimbElevationGain float64        `json:"biggest_climb_elevation_gain"`
	RecentRunTotals           ActivityTotals `json:"recent_run_totals"`
	RecentRideTotals          ActivityTotals `json:"recent_ride_totals"`
	RecentSwimTotals          ActivityTotals `json:"recent_swim_totals"`
	YTDRunTotals              ActivityTotals `json:"ytd_run_totals"`
	YTDRideTotals             ActivityTotals `json:"ytd_ride_totals"`
	YTDSwimTotals             ActivityTotals `json:"ytd_swim_totals"`
	AllRunTotals              ActivityTotals `json:"all_run_totals"`
	AllRideTotals             ActivityTotals `json:"all_ride_totals"`
	AllSwimTotals             ActivityTotals `json:"all_swim_totals"`
}

// ActivityTotals is one aggregate bucket within athlete stats.
type ActivityTotals struct {
	Count            int     `json:"count"`
	Distance         float64 `json:"distance"`
	MovingTime       int     `json:"moving_time"`
	ElapsedTime      int     `json:"elapsed_time"`
	ElevationGain    float64 `json:"elevation_gain"`
	AchievementCount int     `json:"achievement_count"`
}
