// Package render turns frame points into map markers: one coloured circle per
// storm with its tooltip, as plain structs or as a GeoJSON FeatureCollection.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/cyclone-track-service/internal/domain"
)

const (
	baseRadius   = 4.0
	hoverRadius  = 8.0
	maxRadius    = 14.0
	radiusPerKMH = 0.04
)

// Marker is a single rendered circle.
type Marker struct {
	StormID     int     `json:"storm_id"`
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Color       string  `json:"color"`
	Radius      float64 `json:"radius"`
	HoverRadius float64 `json:"hover_radius"`
	Grade       string  `json:"grade"`
	Timestamp   string  `json:"timestamp"`
	Place       string  `json:"place,omitempty"`
	Tooltip     string  `json:"tooltip"`
}

// PlaceFunc resolves an optional place name for a marker position. It returns
// "" when nothing is known.
type PlaceFunc func(lat, lon float64) string

// Markers renders one marker per point. places may be nil.
func Markers(points []domain.Point, places PlaceFunc) []Marker {
	out := make([]Marker, 0, len(points))
	for _, p := range points {
		var place string
		if places != nil {
			place = places(p.Lat, p.Lon)
		}
		r := radiusFor(p.WindSpeed)
		out = append(out, Marker{
			StormID:     p.StormID,
			Name:        p.Name,
			Lat:         p.Lat,
			Lon:         p.Lon,
			Color:       p.Color,
			Radius:      r,
			HoverRadius: math.Max(r, hoverRadius),
			Grade:       p.Grade,
			Timestamp:   p.Timestamp(),
			Place:       place,
			Tooltip:     Tooltip(p, place),
		})
	}
	return out
}

// radiusFor scales the marker with wind speed, capped at maxRadius.
func radiusFor(windKMH float64) float64 {
	return math.Min(baseRadius+windKMH*radiusPerKMH, maxRadius)
}

// Tooltip formats the hover text of a point.
func Tooltip(p domain.Point, place string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (#%d)\n", p.Name, p.StormID)
	grade := p.Grade
	if g, ok := domain.LookupGrade(p.Grade); ok {
		grade = g.Label
	}
	if grade == "" {
		grade = "Ungraded"
	}
	fmt.Fprintf(&b, "Grade: %s\n", grade)
	fmt.Fprintf(&b, "Wind: %.1f km/h\n", p.WindSpeed)
	if p.Pressure > 0 {
		fmt.Fprintf(&b, "Pressure: %.0f hPa\n", p.Pressure)
	}
	fmt.Fprintf(&b, "Date: %s %s UTC", p.Date, p.Time)
	if place != "" {
		fmt.Fprintf(&b, "\nNear: %s", place)
	}
	return b.String()
}

// FeatureCollection converts markers to GeoJSON points with the marker fields
// as properties.
func FeatureCollection(markers []Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		f := geojson.NewFeature(orb.Point{m.Lon, m.Lat})
		f.Properties["storm_id"] = m.StormID
		f.Properties["name"] = m.Name
		f.Properties["color"] = m.Color
		f.Properties["radius"] = m.Radius
		f.Properties["hover_radius"] = m.HoverRadius
		f.Properties["grade"] = m.Grade
		f.Properties["timestamp"] = m.Timestamp
		f.Properties["tooltip"] = m.Tooltip
		if m.Place != "" {
			f.Properties["place"] = m.Place
		}
		fc.Append(f)
	}
	return fc
}

// TrackLines renders each storm track as a GeoJSON LineString coloured by the
// storm's strongest grade. Single-fix tracks become points.
func TrackLines(tracks []domain.StormTrack) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, t := range tracks {
		if len(t.Points) == 0 {
			continue
		}
		summary := domain.Summarize(t)
		var f *geojson.Feature
		if len(t.Points) == 1 {
			f = geojson.NewFeature(orb.Point{t.Points[0].Lon, t.Points[0].Lat})
		} else {
			line := make(orb.LineString, len(t.Points))
			for i, p := range t.Points {
				line[i] = orb.Point{p.Lon, p.Lat}
			}
			f = geojson.NewFeature(line)
		}
		f.Properties["storm_id"] = t.StormID
		f.Properties["name"] = t.Name
		f.Properties["color"] = domain.GradeColor(summary.PeakGrade)
		f.Properties["peak_grade"] = summary.PeakGrade
		f.Properties["track_length_km"] = math.Round(summary.TrackLengthKM*10) / 10
		fc.Append(f)
	}
	return fc
}
