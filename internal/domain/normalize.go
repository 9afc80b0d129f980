package domain

import (
	"math"
	"strconv"
	"strings"
)

// KnotsToKMH converts knots to kilometres per hour.
const KnotsToKMH = 1.852

// UnknownName is used when a record carries no storm name.
const UnknownName = "Unknown"

// Stats counts the outcome of normalizing a batch of records.
type Stats struct {
	Total           int `json:"total"`
	Kept            int `json:"kept"`
	DroppedCoords   int `json:"dropped_coordinates"`
	DefaultedWind   int `json:"defaulted_wind"`
	DefaultedPress  int `json:"defaulted_pressure"`
	DefaultedSerial int `json:"defaulted_serial"`
}

// Normalize converts a raw record into a Point. It returns false when either
// coordinate fails to parse to a finite number; the record must then be
// excluded. Unparseable wind, pressure and serial values become zero and a
// blank name becomes UnknownName.
func Normalize(rec RawRecord) (Point, bool) {
	p, _, ok := normalize(rec)
	return p, ok
}

// normalizeFlags reports which fields fell back to defaults.
type normalizeFlags struct {
	wind, pressure, serial bool
}

func normalize(rec RawRecord) (Point, normalizeFlags, bool) {
	var flags normalizeFlags

	lat, okLat := parseFinite(rec.Latitude.String())
	lon, okLon := parseFinite(rec.Longitude.String())
	if !okLat || !okLon {
		return Point{}, flags, false
	}

	knots, ok := parseFinite(rec.WindKnots.String())
	if !ok {
		knots = 0
		flags.wind = true
	}
	pressure, ok := parseFinite(rec.Pressure.String())
	if !ok {
		pressure = 0
		flags.pressure = true
	}
	serial, err := strconv.Atoi(rec.Serial.String())
	if err != nil {
		serial = 0
		flags.serial = true
	}

	name := rec.Name.String()
	if name == "" {
		name = UnknownName
	}
	grade := rec.Grade.String()

	return Point{
		StormID:   serial,
		Date:      rec.Date.String(),
		Time:      rec.Time.String(),
		Lat:       lat,
		Lon:       lon,
		Grade:     grade,
		Color:     GradeColor(grade),
		WindSpeed: knots * KnotsToKMH,
		Pressure:  pressure,
		Basin:     rec.Basin.String(),
		Shape:     rec.Shape.String(),
		Name:      name,
	}, flags, true
}

// NormalizeAll normalizes every record, keeping source order and dropping
// records without usable coordinates.
func NormalizeAll(recs []RawRecord) ([]Point, Stats) {
	stats := Stats{Total: len(recs)}
	points := make([]Point, 0, len(recs))
	for _, rec := range recs {
		p, flags, ok := normalize(rec)
		if !ok {
			stats.DroppedCoords++
			continue
		}
		if flags.wind {
			stats.DefaultedWind++
		}
		if flags.pressure {
			stats.DefaultedPress++
		}
		if flags.serial {
			stats.DefaultedSerial++
		}
		points = append(points, p)
	}
	stats.Kept = len(points)
	return points, stats
}

// parseFinite parses s as float64 and rejects NaN and infinities.
func parseFinite(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
