package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cyclone_tracks"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Load stage.
	RecordsLoaded  prometheus.Counter
	RecordsDropped *prometheus.CounterVec // labels: reason={coordinates}
	FieldDefaults  *prometheus.CounterVec // labels: field={wind,pressure,serial}
	LoadFailures   prometheus.Counter
	LoadDuration   prometheus.Histogram
	PointsActive   prometheus.Gauge

	// Presenter.
	ControlChanges *prometheus.CounterVec // labels: control={year,index,press,release,advance}
	FramePoints    prometheus.Histogram
	Animating      prometheus.Gauge

	// Sinks.
	PointsPublished prometheus.Counter
	PublishErrors   prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates metrics registered with reg.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Raw observation records read from the source document.",
		}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Records excluded during normalization, by reason.",
		}, []string{"reason"}),
		FieldDefaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_defaults_total",
			Help:      "Fields that failed to parse and were zeroed, by field.",
		}, []string{"field"}),
		LoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_failures_total",
			Help:      "Failed attempts to fetch or decode the source document.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of the fetch-normalize-load stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		PointsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "points_active",
			Help:      "Normalized points held by the viewer.",
		}),
		ControlChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_changes_total",
			Help:      "Accepted control changes, by control.",
		}, []string{"control"}),
		FramePoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_points",
			Help:      "Markers rendered per frame request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		Animating: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "animating",
			Help:      "1 while the animating flag is set, 0 otherwise.",
		}),
		PointsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_published_total",
			Help:      "Normalized points written to the Kafka sink.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed Kafka sink writes.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RecordsLoaded,
		m.RecordsDropped,
		m.FieldDefaults,
		m.LoadFailures,
		m.LoadDuration,
		m.PointsActive,
		m.ControlChanges,
		m.FramePoints,
		m.Animating,
		m.PointsPublished,
		m.PublishErrors,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	}
}
