package pipeline

import (
	"github.com/couchcryptid/cyclone-track-service/internal/domain"
	"github.com/couchcryptid/cyclone-track-service/internal/observability"
)

// transform normalizes records and records the drop and default counts.
func transform(records []domain.RawRecord, metrics *observability.Metrics) ([]domain.Point, domain.Stats) {
	points, stats := domain.NormalizeAll(records)

	metrics.RecordsDropped.WithLabelValues("coordinates").Add(float64(stats.DroppedCoords))
	metrics.FieldDefaults.WithLabelValues("wind").Add(float64(stats.DefaultedWind))
	metrics.FieldDefaults.WithLabelValues("pressure").Add(float64(stats.DefaultedPress))
	metrics.FieldDefaults.WithLabelValues("serial").Add(float64(stats.DefaultedSerial))

	return points, stats
}
