package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is a raw field from the source document. The export is inconsistent
// about quoting, so a Value accepts a JSON string, a number, a boolean or null
// and always holds the text form. Objects and arrays decode to the empty value
// so that Normalize drops or defaults the field like any other bad input.
type Value string

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode string value: %w", err)
		}
		*v = Value(s)
	case data[0] == '{' || data[0] == '[':
		*v = ""
	default:
		*v = Value(data)
	}
	return nil
}

// String returns the trimmed text of the value.
func (v Value) String() string {
	return strings.TrimSpace(string(v))
}

// RawRecord is one object of the source JSON array.
type RawRecord struct {
	Latitude  Value `json:"latitude-lat"`
	Longitude Value `json:"longitude-long"`
	WindKnots Value `json:"maximumsustainedsurfacewind-kt"`
	Pressure  Value `json:"estimatedcentralpressurehpaorecp"`
	Serial    Value `json:"serialnumberofsystemduringyear"`
	Date      Value `json:"date-dd-mm-yyyy"`
	Time      Value `json:"time-utc"`
	Grade     Value `json:"grade-text"`
	Basin     Value `json:"basinoforigin"`
	Shape     Value `json:"cinoorornot"`
	Name      Value `json:"name"`
}

// Point is a normalized storm observation. Points are never mutated after
// Normalize returns them.
type Point struct {
	StormID   int     `json:"storm_id"`
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Grade     string  `json:"grade"`
	Color     string  `json:"color"`
	WindSpeed float64 `json:"wind_speed_kmh"`
	Pressure  float64 `json:"pressure_hpa"`
	Basin     string  `json:"basin,omitempty"`
	Shape     string  `json:"shape,omitempty"`
	Name      string  `json:"name"`
}

// Timestamp is the frame key: the date and time strings concatenated.
func (p Point) Timestamp() string {
	return p.Date + p.Time
}

// Year extracts the year from the dd-mm-yyyy date, or 0 if it is malformed.
func (p Point) Year() int {
	return parseYear(p.Date)
}

func parseYear(date string) int {
	parts := strings.Split(strings.TrimSpace(date), "-")
	if len(parts) != 3 {
		return 0
	}
	y, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0
	}
	return y
}

// StormTrack is the ordered set of observations for one storm identifier.
type StormTrack struct {
	StormID int     `json:"storm_id"`
	Name    string  `json:"name"`
	Points  []Point `json:"points"`
}
