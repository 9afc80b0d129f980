// Package export writes normalized points to a Parquet file for offline
// analysis.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/couchcryptid/cyclone-track-service/internal/domain"
)

// Row is the on-disk layout of one observation.
type Row struct {
	Year        int32   `parquet:"year"`
	StormID     int32   `parquet:"storm_id"`
	Name        string  `parquet:"name"`
	Date        string  `parquet:"date"`
	Time        string  `parquet:"time"`
	Timestamp   string  `parquet:"timestamp"`
	Lat         float64 `parquet:"lat"`
	Lon         float64 `parquet:"lon"`
	Grade       string  `parquet:"grade"`
	Color       string  `parquet:"color"`
	WindKMH     float64 `parquet:"wind_speed_kmh"`
	PressureHPA float64 `parquet:"pressure_hpa"`
	Basin       string  `parquet:"basin"`
	Shape       string  `parquet:"shape"`
}

func toRow(p domain.Point) Row {
	return Row{
		Year:        int32(p.Year()),
		StormID:     int32(p.StormID),
		Name:        p.Name,
		Date:        p.Date,
		Time:        p.Time,
		Timestamp:   p.Timestamp(),
		Lat:         p.Lat,
		Lon:         p.Lon,
		Grade:       p.Grade,
		Color:       p.Color,
		WindKMH:     p.WindSpeed,
		PressureHPA: p.Pressure,
		Basin:       p.Basin,
		Shape:       p.Shape,
	}
}

// Write encodes points to w in source order.
func Write(w io.Writer, points []domain.Point) error {
	rows := make([]Row, len(points))
	for i, p := range points {
		rows[i] = toRow(p)
	}

	pw := parquet.NewGenericWriter[Row](w)
	if _, err := pw.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// FileSink writes the collection to a Parquet file. It implements
// pipeline.Sink. The file is replaced atomically.
type FileSink struct {
	path string
}

// NewFileSink creates a sink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Publish writes points to the sink's path.
func (s *FileSink) Publish(ctx context.Context, points []domain.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".export-*.parquet")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if err := Write(tmp, points); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename export file: %w", err)
	}
	return nil
}
