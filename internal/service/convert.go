package service

import (
	"stridedash/internal/store"
	"stridedash/internal/strava"
)

// convertActivity maps an API activity onto a store row. Optional
// measurements pass through as pointers: keys the API omitted stay nil
// (stored NULL), measured values are kept as-is — zero and negative
// readings included.
func convertActivity(a strava.Activity) *store.Activity {
	return &store.Activity{
		ID:                 a.ID,
		AthleteID:          a.Athlete.ID,
		Name:               a.Name,
		Type:               a.Type,
		SportType:          a.SportType,
		StartDate:          a.StartDate,
		StartDateLocal:     a.StartDateLocal,
		Timezone:           a.Timezone,
		Distance:           a.Distance,
		MovingTime:         a.MovingTime,
		ElapsedTime:        a.ElapsedTime,
		TotalElevationGain: a.TotalElevationGain,
		AverageSpeed:       a.AverageSpeed,
		MaxSpeed:           a.MaxSpeed,
		AverageHeartrate:   a.AverageHeartrate,
		MaxHeartrate:       a.MaxHeartrate,
		AverageCadence:     a.AverageCadence,
		AverageWatts:       a.AverageWatts,
		Calories:           a.Calories,
		SufferScore:        a.SufferScore,
		ElevHigh:           a.ElevHigh,
		ElevLow:            a.ElevLow,
		HasHeartrate:       a.HasHeartrate,
		MapPolyline:        a.Map.SummaryPolyline,
		SplitsMetric:       convertSplits(a.SplitsMetric),
		SegmentEfforts:     convertEfforts(a.SegmentEfforts),
	}
}

func convertSplits(splits []strava.Split) []store.Split {
	if len(splits) == 0 {
		return nil
	}
	out := make([]store.Split, len(splits))
	for i, s := range splits {
		out[i] = store.Split{
			Split:               s.Split,
			Distance:            s.Distance,
			ElapsedTime:         s.ElapsedTime,
			MovingTime:          s.MovingTime,
			AverageSpeed:        s.AverageSpeed,
			ElevationDifference: s.ElevationDifference,
			PaceZone:            s.PaceZone,
		}
	}
	return out
}

func convertEfforts(efforts []strava.SegmentEffort) []store.SegmentEffort {
	if len(efforts) == 0 {
		return nil
	}
	out := make([]store.SegmentEffort, len(efforts))
	for i, e := range efforts {
		out[i] = store.SegmentEffort{
			ID:          e.ID,
			Name:        e.Name,
			Distance:    e.Distance,
			ElapsedTime: e.ElapsedTime,
			MovingTime:  e.MovingTime,
			StartDate:   e.StartDate,
			PRRank:      e.PRRank,
		}
	}
	return out
}

func convertAthlete(a *strava.Athlete) *store.Athlete {
	return &store.Athlete{
		ID:        a.ID,
		Username:  a.Username,
		Firstname: a.Firstname,
		Lastname:  a.Lastname,
		City:      a.City,
		Country:   a.Country,
		Sex:       a.Sex,
		Weight:    a.Weight,
		Profile:   a.Profile,
	}
}

func convertStats(athleteID int64, st *strava.AthleteStats) *store.AthleteStats {
	return &store.AthleteStats{
		AthleteID:                 athleteID,
		BiggestRideDistance:       st.BiggestRideDistance,
		BiggestClimbElevationGain: st.BiggestClimbElevationGain,
		RecentRunTotals:           convertTotals(st.RecentRunTotals),
		RecentRideTotals:          convertTotals(st.RecentRideTotals),
		RecentSwimTotals:          convertTotals(st.RecentSwimTotals),
		YTDRunTotals:              convertTotals(st.YTDRunTotals),
		YTDRideTotals:             convertTotals(st.YTDRideTotals),
		YTDSwimTotals:             convertTotals(st.YTDSwimTotals),
		AllRunTotals:              convertTotals(st.AllRunTotals),
		AllRideTotals:             convertTotals(st.AllRideTotals),
		AllSwimTotals:             convertTotals(st.AllSwimTotals),
	}
}

func convertTotals(t strava.ActivityTotals) store.Totals {
	return store.Totals{
		Count:            t.Count,
		Distance:         t.Distance,
		MovingTime:       t.MovingTime,
		ElapsedTime:      t.ElapsedTime,
		ElevationGain:    t.ElevationGain,
		AchievementCount: t.AchievementCount,
	}
}
