package domain

import "github.com/skypies/geo"

// TrackSummary describes one storm track at a glance.
type TrackSummary struct {
	StormID       int     `json:"storm_id"`
	Name          string  `json:"name"`
	Fixes         int     `json:"fixes"`
	FirstSeen     string  `json:"first_seen"`
	LastSeen      string  `json:"last_seen"`
	PeakWind      float64 `json:"peak_wind_kmh"`
	MinPressure   float64 `json:"min_pressure_hpa,omitempty"`
	PeakGrade     string  `json:"peak_grade,omitempty"`
	TrackLengthKM float64 `json:"track_length_km"`
}

// Summarize derives a TrackSummary. Zero pressures are placeholders and do not
// count towards the minimum. Track length sums great-circle distances between
// consecutive fixes in source order.
func Summarize(t StormTrack) TrackSummary {
	s := TrackSummary{StormID: t.StormID, Name: t.Name, Fixes: len(t.Points)}
	if len(t.Points) == 0 {
		return s
	}
	s.FirstSeen = t.Points[0].Timestamp()
	s.LastSeen = t.Points[len(t.Points)-1].Timestamp()

	peakRank := 0
	var prev geo.Latlong
	for i, p := range t.Points {
		if p.WindSpeed > s.PeakWind {
			s.PeakWind = p.WindSpeed
		}
		if p.Pressure > 0 && (s.MinPressure == 0 || p.Pressure < s.MinPressure) {
			s.MinPressure = p.Pressure
		}
		if r := gradeRank(p.Grade); r > peakRank {
			peakRank = r
			s.PeakGrade = p.Grade
		}
		pos := geo.Latlong{Lat: p.Lat, Long: p.Lon}
		if i > 0 {
			s.TrackLengthKM += prev.DistKM(pos)
		}
		prev = pos
	}
	return s
}
