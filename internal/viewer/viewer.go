// Package viewer holds the presenter state: the loaded points, the year and
// timestamp-index controls, the slider state machine and the views derived
// from them.
//
// Every control change recomputes the derived views synchronously under the
// write lock, so readers always observe a consistent frame.
package viewer

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/cyclone-track-service/internal/config"
	"github.com/couchcryptid/cyclone-track-service/internal/domain"
	"github.com/couchcryptid/cyclone-track-service/internal/observability"
	"github.com/couchcryptid/cyclone-track-service/internal/spatial"
)

var (
	ErrYearOutOfRange  = errors.New("year out of range")
	ErrIndexOutOfRange = errors.New("timestamp index out of range")
)

// SliderState is the timestamp slider's interaction state.
type SliderState string

const (
	Idle      SliderState = "idle"
	Scrubbing SliderState = "scrubbing"
)

// View is a consistent copy of the presenter state.
type View struct {
	Year      int                 `json:"year"`
	MinYear   int                 `json:"min_year"`
	MaxYear   int                 `json:"max_year"`
	Years     []int               `json:"available_years"`
	Index     int                 `json:"index"`
	SliderMax int                 `json:"slider_max"`
	Frames    int                 `json:"frames"`
	Timestamp string              `json:"timestamp"`
	Points    []domain.Point      `json:"points"`
	Tracks    []domain.StormTrack `json:"tracks"`
	Slider    SliderState         `json:"slider"`
	Animating bool                `json:"animating"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Viewer is safe for concurrent use.
type Viewer struct {
	metrics *observability.Metrics

	mu        sync.RWMutex
	all       []domain.Point
	years     []int
	year      int
	index     int
	slider    SliderState
	animating bool
	updatedAt time.Time

	// Derived from all, year and index.
	yearPoints []domain.Point
	timestamps []string
	tracks     []domain.StormTrack
	frame      []domain.Point
	frameIndex *spatial.Index
}

// New creates an empty viewer at year. The animating flag starts set.
func New(year int, metrics *observability.Metrics) (*Viewer, error) {
	if err := checkYear(year); err != nil {
		return nil, err
	}
	v := &Viewer{
		metrics:   metrics,
		year:      year,
		slider:    Idle,
		animating: true,
	}
	v.recompute()
	v.metrics.Animating.Set(1)
	return v, nil
}

// Load replaces the point collection. It is called once after the source is
// read; the controls keep their values and the index is clamped.
func (v *Viewer) Load(points []domain.Point) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.all = points
	v.years = selectableYears(points)
	v.recompute()
	v.metrics.PointsActive.Set(float64(len(points)))
}

// SetYear selects the active year and clamps the timestamp index into the
// year's range.
func (v *Viewer) SetYear(year int) error {
	if err := checkYear(year); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.year = year
	v.recompute()
	v.metrics.ControlChanges.WithLabelValues("year").Inc()
	return nil
}

// SetIndex selects the timestamp frame.
func (v *Viewer) SetIndex(index int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if index < 0 || index > v.sliderMax() {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrIndexOutOfRange, index, v.sliderMax())
	}
	v.index = index
	v.recompute()
	v.metrics.ControlChanges.WithLabelValues("index").Inc()
	return nil
}

// Press starts scrubbing and pauses animation.
func (v *Viewer) Press() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.slider = Scrubbing
	v.setAnimating(false)
	v.touch()
	v.metrics.ControlChanges.WithLabelValues("press").Inc()
}

// Release ends scrubbing and resumes animation.
func (v *Viewer) Release() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.slider = Idle
	v.setAnimating(true)
	v.touch()
	v.metrics.ControlChanges.WithLabelValues("release").Inc()
}

// Advance moves to the next frame, wrapping after the last one. It reports
// false and changes nothing while scrubbing, while paused, or when the year has
// no frames.
func (v *Viewer) Advance() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.slider == Scrubbing || !v.animating || len(v.timestamps) == 0 {
		return false
	}
	v.index = (v.index + 1) % len(v.timestamps)
	v.recompute()
	v.metrics.ControlChanges.WithLabelValues("advance").Inc()
	return true
}

// Snapshot returns a copy of the current state.
func (v *Viewer) Snapshot() View {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snapshot()
}

func (v *Viewer) snapshot() View {
	return View{
		Year:      v.year,
		MinYear:   config.MinYear,
		MaxYear:   config.MaxYear,
		Years:     slices.Clone(v.years),
		Index:     v.index,
		SliderMax: v.sliderMax(),
		Frames:    len(v.timestamps),
		Timestamp: v.currentTimestamp(),
		Points:    append([]domain.Point(nil), v.frame...),
		Tracks:    append([]domain.StormTrack(nil), v.tracks...),
		Slider:    v.slider,
		Animating: v.animating,
		UpdatedAt: v.updatedAt,
	}
}

// Frame returns the current frame's points, limited to bbox when it is not nil.
func (v *Viewer) Frame(bbox *spatial.BBox) ([]domain.Point, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.framePoints(bbox)
}

// FrameView returns the view and the frame points read under one lock, so the
// points always belong to the reported index.
func (v *Viewer) FrameView(bbox *spatial.BBox) (View, []domain.Point, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	points, err := v.framePoints(bbox)
	if err != nil {
		return View{}, nil, err
	}
	return v.snapshot(), points, nil
}

func (v *Viewer) framePoints(bbox *spatial.BBox) ([]domain.Point, error) {
	var (
		points []domain.Point
		err    error
	)
	if bbox == nil {
		points = append([]domain.Point(nil), v.frame...)
	} else {
		points, err = v.frameIndex.Within(*bbox)
		if err != nil {
			return nil, err
		}
	}
	v.metrics.FramePoints.Observe(float64(len(points)))
	return points, nil
}

// Timestamps returns the distinct frame keys of the active year.
func (v *Viewer) Timestamps() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.timestamps...)
}

// Tracks returns the storm tracks of the active year.
func (v *Viewer) Tracks() []domain.StormTrack {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]domain.StormTrack(nil), v.tracks...)
}

// recompute rebuilds every derived view. Callers hold the write lock.
func (v *Viewer) recompute() {
	v.yearPoints = domain.FilterByYear(v.all, v.year)
	v.timestamps = domain.UniqueTimestamps(v.yearPoints)
	v.tracks = domain.GroupByStorm(v.yearPoints)
	if v.index > v.sliderMax() {
		v.index = v.sliderMax()
	}
	v.frame = domain.FilterByTimestamp(v.yearPoints, v.currentTimestamp())
	v.frameIndex = spatial.NewIndex(v.frame)
	v.touch()
}

func (v *Viewer) setAnimating(on bool) {
	v.animating = on
	if on {
		v.metrics.Animating.Set(1)
	} else {
		v.metrics.Animating.Set(0)
	}
}

func (v *Viewer) touch() {
	v.updatedAt = clock.Now().UTC()
}

func (v *Viewer) sliderMax() int {
	return max(len(v.timestamps)-1, 0)
}

func (v *Viewer) currentTimestamp() string {
	if len(v.timestamps) == 0 {
		return ""
	}
	return v.timestamps[v.index]
}

func checkYear(year int) error {
	if year < config.MinYear || year > config.MaxYear {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrYearOutOfRange, year, config.MinYear, config.MaxYear)
	}
	return nil
}

// selectableYears lists the years with data that the year control accepts,
// ascending.
func selectableYears(points []domain.Point) []int {
	years := slices.DeleteFunc(domain.Years(points), func(y int) bool {
		return checkYear(y) != nil
	})
	slices.Sort(years)
	return years
}
