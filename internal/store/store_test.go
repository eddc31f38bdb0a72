package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenPath(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ptrFloat(v float64) *float64 { return &v }

func ptrInt(v int) *int { return &v }

func testActivity() *Activity {
	prRank := 2
	return &Activity{
		ID:                 1001,
		AthleteID:          42,
		Name:               "Morning Run",
		Type:               "Run",
		SportType:          "Run",
		StartDate:          time.Date(2026, 8, 30, 6, 15, 0, 0, time.UTC),
		StartDateLocal:     time.Date(2026, 8, 30, 8, 15, 0, 0, time.UTC),
		Timezone:           "(GMT+01:00) Europe/Berlin",
		Distance:           10012.5,
		MovingTime:         2890,
		ElapsedTime:        2950,
		TotalElevationGain: 84.2,
		AverageSpeed:       3.46,
		MaxSpeed:           4.9,
		AverageHeartrate:   ptrFloat(152.3),
		MaxHeartrate:       ptrFloat(176),
		SufferScore:        ptrInt(55),
		HasHeartrate:       true,
		MapPolyline:        "abc~xyz",
		SplitsMetric: []Split{
			{Split: 1, Distance: 1000, ElapsedTime: 290, MovingTime: 288, AverageSpeed: 3.45, ElevationDifference: 4.2, PaceZone: 2},
			{Split: 2, Distance: 1000, ElapsedTime: 285, MovingTime: 285, AverageSpeed: 3.51, ElevationDifference: -1.8, PaceZone: 3},
		},
		SegmentEfforts: []SegmentEffort{
			{ID: 7001, Name: "Park Loop", Distance: 1800, ElapsedTime: 520, MovingTime: 518,
				StartDate: time.Date(2026, 8, 30, 6, 20, 0, 0, time.UTC), PRRank: &prRank},
			{ID: 7002, Name: "River Path", Distance: 900, ElapsedTime: 250, MovingTime: 250,
				StartDate: time.Date(2026, 8, 30, 6, 40, 0, 0, time.UTC)},
		},
	}
}

func TestActivityRoundTrip(t *testing.T) {
	s := newTestStore(t)
	want := testActivity()
	require.NoError(t, s.UpsertActivity(want))

	got, err := s.GetActivity(want.ID)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.AthleteID, got.AthleteID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.SportType, got.SportType)
	assert.True(t, got.StartDate.Equal(want.StartDate))
	assert.True(t, got.StartDateLocal.Equal(want.StartDateLocal))
	assert.Equal(t, want.Distance, got.Distance)
	assert.Equal(t, want.MovingTime, got.MovingTime)
	assert.True(t, got.HasHeartrate)
	assert.Equal(t, want.MapPolyline, got.MapPolyline)

	require.NotNil(t, got.AverageHeartrate)
	assert.Equal(t, 152.3, *got.AverageHeartrate)
	require.NotNil(t, got.SufferScore)
	assert.Equal(t, 55, *got.SufferScore)

	// unmeasured optionals come back nil, not zero
	assert.Nil(t, got.AverageCadence)
	assert.Nil(t, got.AverageWatts)
	assert.Nil(t, got.Calories)
	assert.Nil(t, got.ElevHigh)
	assert.Nil(t, got.ElevLow)

	// nested collections survive the JSON columns losslessly
	assert.Equal(t, want.SplitsMetric, got.SplitsMetric)
	require.Len(t, got.SegmentEfforts, 2)
	for i, effort := range got.SegmentEfforts {
		assert.Equal(t, want.SegmentEfforts[i].ID, effort.ID)
		assert.Equal(t, want.SegmentEfforts[i].Name, effort.Name)
		assert.Equal(t, want.SegmentEfforts[i].ElapsedTime, effort.ElapsedTime)
		assert.True(t, effort.StartDate.Equal(want.SegmentEfforts[i].StartDate))
	}
	require.NotNil(t, got.SegmentEfforts[0].PRRank)
	assert.Equal(t, 2, *got.SegmentEfforts[0].PRRank)
	assert.Nil(t, got.SegmentEfforts[1].PRRank)
}

func TestUpsertActivityIdempotent(t *testing.T) {
	s := newTestStore(t)
	a := testActivity()
	require.NoError(t, s.UpsertActivity(a))

	a.Name = "Renamed Run"
	a.Distance = 10500
	a.SufferScore = nil
	a.SplitsMetric = nil
	require.NoError(t, s.UpsertActivity(a))

	count, err := s.CountActivities()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "same id must not create a second row")

	got, err := s.GetActivity(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Run", got.Name)
	assert.Equal(t, 10500.0, got.Distance)
	assert.Nil(t, got.SufferScore)
	assert.Nil(t, got.SplitsMetric, "empty collection stores NULL")
}

func TestGetActivityNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetActivity(9999)
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestListActivitiesOrdered(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 8, 1, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		a := testActivity()
		a.ID = int64(2000 + i)
		a.StartDate = base.AddDate(0, 0, i)
		a.StartDateLocal = a.StartDate
		require.NoError(t, s.UpsertActivity(a))
	}

	activities, err := s.ListActivities(10, 0)
	require.NoError(t, err)
	require.Len(t, activities, 3)
	assert.Equal(t, int64(2002), activities[0].ID, "newest first")
	assert.Equal(t, int64(2000), activities[2].ID)

	page, err := s.ListActivities(1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(2001), page[0].ID)
}

func TestLatestActivityDate(t *testing.T) {
	s := newTestStore(t)

	latest, err := s.LatestActivityDate()
	require.NoError(t, err)
	assert.True(t, latest.IsZero(), "empty store has no latest date")

	a := testActivity()
	require.NoError(t, s.UpsertActivity(a))

	older := testActivity()
	older.ID = 1002
	older.StartDate = a.StartDate.AddDate(0, -1, 0)
	require.NoError(t, s.UpsertActivity(older))

	latest, err = s.LatestActivityDate()
	require.NoError(t, err)
	assert.True(t, latest.Equal(a.StartDate))
}

func TestAuthRoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetAuth()
	assert.ErrorIs(t, err, ErrNoAuth)

	expiry := time.Now().Add(6 * time.Hour).Truncate(time.Second)
	require.NoError(t, s.SaveAuth(&Auth{
		AthleteID:    42,
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    expiry,
	}))

	auth, err := s.GetAuth()
	require.NoError(t, err)
	assert.Equal(t, int64(42), auth.AthleteID)
	assert.Equal(t, "access", auth.AccessToken)
	assert.True(t, auth.ExpiresAt.Equal(expiry))

	newExpiry := expiry.Add(6 * time.Hour)
	require.NoError(t, s.UpdateTokens("access2", "refresh2", newExpiry))

	auth, err = s.GetAuth()
	require.NoError(t, err)
	assert.Equal(t, "access2", auth.AccessToken)
	assert.Equal(t, "refresh2", auth.RefreshToken)
	assert.True(t, auth.ExpiresAt.Equal(newExpiry))

	require.NoError(t, s.DeleteAuth())
	_, err = s.GetAuth()
	assert.ErrorIs(t, err, ErrNoAuth)
}

func TestUpdateTokensWithoutAuth(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateTokens("a", "r", time.Now())
	assert.ErrorIs(t, err, ErrNoAuth)
}

func TestAthleteRoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetAthlete(42)
	assert.ErrorIs(t, err, ErrAthleteNotFound)

	want := &Athlete{
		ID:        42,
		Username:  "runner",
		Firstname: "Ada",
		Lastname:  "L",
		City:      "Berlin",
		Country:   "Germany",
		Sex:       "F",
		Weight:    ptrFloat(61.5),
		Profile:   "https://example.com/avatar.jpg",
	}
	require.NoError(t, s.UpsertAthlete(want))

	got, err := s.GetAthlete(42)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// upsert with missing weight nulls it out
	want.Weight = nil
	want.City = "Hamburg"
	require.NoError(t, s.UpsertAthlete(want))

	got, err = s.GetAthlete(42)
	require.NoError(t, err)
	assert.Nil(t, got.Weight)
	assert.Equal(t, "Hamburg", got.City)
}

func TestAthleteStatsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetAthleteStats(42)
	assert.ErrorIs(t, err, ErrStatsNotFound)

	want := &AthleteStats{
		AthleteID:                 42,
		BiggestRideDistance:       120000,
		BiggestClimbElevationGain: 900,
		RecentRunTotals:           Totals{Count: 12, Distance: 98000, MovingTime: 30000, ElapsedTime: 31000, ElevationGain: 420, AchievementCount: 3},
		YTDRunTotals:              Totals{Count: 140, Distance: 1200000},
		AllRunTotals:              Totals{Count: 310, Distance: 2500000},
	}
	require.NoError(t, s.UpsertAthleteStats(want))

	got, err := s.GetAthleteStats(42)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want.RecentRunTotals.Count = 13
	require.NoError(t, s.UpsertAthleteStats(want))

	got, err = s.GetAthleteStats(42)
	require.NoError(t, err)
	assert.Equal(t, 13, got.RecentRunTotals.Count)
}

func TestSyncLog(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AppendSyncLog(&SyncLogEntry{
		SyncType:    "activities",
		Status:      SyncStatusSuccess,
		ItemsSynced: 30,
	}))
	msg := "fetching page 2: API error 500"
	require.NoError(t, s.AppendSyncLog(&SyncLogEntry{
		SyncType:     "activities",
		Status:       SyncStatusError,
		ItemsSynced:  12,
		ErrorMessage: &msg,
	}))

	entries, err := s.ListSyncLog(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// newest first
	assert.Equal(t, SyncStatusError, entries[0].Status)
	assert.Equal(t, 12, entries[0].ItemsSynced)
	require.NotNil(t, entries[0].ErrorMessage)
	assert.Equal(t, msg, *entries[0].ErrorMessage)
	assert.False(t, entries[0].CreatedAt.IsZero())

	assert.Equal(t, SyncStatusSuccess, entries[1].Status)
	assert.Nil(t, entries[1].ErrorMessage)

	one, err := s.ListSyncLog(1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, SyncStatusError, one[0].Status)
}
