package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/cyclone-track-service/internal/domain"
	"github.com/couchcryptid/cyclone-track-service/internal/observability"
)

// Source reads the raw records at a location.
type Source interface {
	Load(ctx context.Context, location string) ([]domain.RawRecord, error)
}

// Target receives the normalized collection. viewer.Viewer implements it.
type Target interface {
	Load(points []domain.Point)
}

// Sink publishes the normalized collection downstream.
type Sink interface {
	Publish(ctx context.Context, points []domain.Point) error
}

var errNotLoaded = errors.New("source has not been loaded yet")

// Pipeline runs the single extract-transform-load pass of the service.
type Pipeline struct {
	source   Source
	location string
	target   Target
	sinks    []Sink
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu      sync.Mutex
	loadErr error
	stats   domain.Stats
}

// New creates a Pipeline that reads location from source into target and then
// hands the points to every sink.
func New(source Source, location string, target Target, logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *Pipeline {
	return &Pipeline{
		source:   source,
		location: location,
		target:   target,
		sinks:    sinks,
		logger:   logger,
		metrics:  metrics,
		loadErr:  errNotLoaded,
	}
}

// CheckReadiness returns nil once the source has been loaded, or the error
// that prevented it.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadErr
}

// Stats returns the normalization counts of the last successful run.
func (p *Pipeline) Stats() domain.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Run fetches, normalizes and loads the collection once. A source failure is
// logged and returned and the target is left untouched. Sink failures are
// logged and counted but do not fail the run.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	p.logger.Info("load started", "location", p.location)

	records, err := p.source.Load(ctx, p.location)
	if err != nil {
		p.metrics.LoadFailures.Inc()
		p.logger.Error("load failed", "location", p.location, "error", err)
		err = fmt.Errorf("load source: %w", err)
		p.setResult(err, domain.Stats{})
		return err
	}
	p.metrics.RecordsLoaded.Add(float64(len(records)))

	points, stats := transform(records, p.metrics)
	p.target.Load(points)
	p.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	p.setResult(nil, stats)

	p.logger.Info("load complete",
		"records", stats.Total,
		"kept", stats.Kept,
		"dropped_coordinates", stats.DroppedCoords,
		"defaulted_wind", stats.DefaultedWind,
		"defaulted_pressure", stats.DefaultedPress,
		"duration", time.Since(start),
	)

	p.publish(ctx, points)
	return nil
}

func (p *Pipeline) publish(ctx context.Context, points []domain.Point) {
	if len(points) == 0 {
		return
	}
	for _, s := range p.sinks {
		if err := s.Publish(ctx, points); err != nil {
			p.metrics.PublishErrors.Inc()
			p.logger.Error("publish failed", "error", err, "points", len(points))
			continue
		}
		p.metrics.PointsPublished.Add(float64(len(points)))
	}
}

func (p *Pipeline) setResult(err error, stats domain.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadErr = err
	p.stats = stats
}
