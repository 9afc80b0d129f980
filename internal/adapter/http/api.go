package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/couchcryptid/cyclone-track-service/internal/domain"
	"github.com/couchcryptid/cyclone-track-service/internal/render"
	"github.com/couchcryptid/cyclone-track-service/internal/spatial"
	"github.com/couchcryptid/cyclone-track-service/internal/viewer"
)

const placeLookupTimeout = 2 * time.Second

// Presenter is the viewer surface the API drives. viewer.Viewer implements it.
type Presenter interface {
	Snapshot() viewer.View
	FrameView(bbox *spatial.BBox) (viewer.View, []domain.Point, error)
	Timestamps() []string
	Tracks() []domain.StormTrack
	SetYear(year int) error
	SetIndex(index int) error
	Press()
	Release()
}

type frameResponse struct {
	Year      int             `json:"year"`
	Index     int             `json:"index"`
	Timestamp string          `json:"timestamp"`
	Markers   []render.Marker `json:"markers"`
}

type stormResponse struct {
	domain.TrackSummary
	Points []domain.Point `json:"points"`
}

type timestampsResponse struct {
	Year       int      `json:"year"`
	Timestamps []string `json:"timestamps"`
}

type paletteResponse struct {
	Grades       []domain.Grade `json:"grades"`
	DefaultColor string         `json:"default_color"`
}

type yearRequest struct {
	Year *int `json:"year"`
}

type indexRequest struct {
	Index *int `json:"index"`
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.presenter.Snapshot())
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	markers, view, err := s.frameMarkers(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if markers == nil {
		markers = []render.Marker{}
	}
	writeJSON(w, http.StatusOK, frameResponse{
		Year:      view.Year,
		Index:     view.Index,
		Timestamp: view.Timestamp,
		Markers:   markers,
	})
}

func (s *Server) handleFrameGeoJSON(w http.ResponseWriter, r *http.Request) {
	markers, _, err := s.frameMarkers(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeGeoJSON(w, render.FeatureCollection(markers))
}

func (s *Server) handleStorms(w http.ResponseWriter, _ *http.Request) {
	tracks := s.presenter.Tracks()
	out := make([]stormResponse, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, stormResponse{TrackSummary: domain.Summarize(t), Points: t.Points})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStormsGeoJSON(w http.ResponseWriter, _ *http.Request) {
	writeGeoJSON(w, render.TrackLines(s.presenter.Tracks()))
}

func (s *Server) handleTimestamps(w http.ResponseWriter, _ *http.Request) {
	view := s.presenter.Snapshot()
	timestamps := s.presenter.Timestamps()
	if timestamps == nil {
		timestamps = []string{}
	}
	writeJSON(w, http.StatusOK, timestampsResponse{Year: view.Year, Timestamps: timestamps})
}

func handlePalette(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, paletteResponse{Grades: domain.Palette, DefaultColor: domain.DefaultColor})
}

func (s *Server) handleSetYear(w http.ResponseWriter, r *http.Request) {
	var req yearRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Year == nil {
		writeError(w, http.StatusBadRequest, errors.New("year is required"))
		return
	}
	if err := s.presenter.SetYear(*req.Year); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.logger.Debug("year changed", "year", *req.Year)
	writeJSON(w, http.StatusOK, s.presenter.Snapshot())
}

func (s *Server) handleSetIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, errors.New("index is required"))
		return
	}
	if err := s.presenter.SetIndex(*req.Index); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.presenter.Snapshot())
}

func (s *Server) handlePress(w http.ResponseWriter, _ *http.Request) {
	s.presenter.Press()
	writeJSON(w, http.StatusOK, s.presenter.Snapshot())
}

func (s *Server) handleRelease(w http.ResponseWriter, _ *http.Request) {
	s.presenter.Release()
	writeJSON(w, http.StatusOK, s.presenter.Snapshot())
}

// frameMarkers renders the current frame, limited to the bbox query parameter
// when present.
func (s *Server) frameMarkers(r *http.Request) ([]render.Marker, viewer.View, error) {
	var bbox *spatial.BBox
	if raw := r.URL.Query().Get("bbox"); raw != "" {
		b, err := spatial.ParseBBox(raw)
		if err != nil {
			return nil, viewer.View{}, err
		}
		bbox = &b
	}

	view, points, err := s.presenter.FrameView(bbox)
	if err != nil {
		return nil, viewer.View{}, err
	}
	return render.Markers(points, s.places(r.Context())), view, nil
}

// places returns a lookup backed by the geocoder, or nil when geocoding is off.
// Lookup failures leave the place empty.
func (s *Server) places(ctx context.Context) render.PlaceFunc {
	if s.geocoder == nil {
		return nil
	}
	return func(lat, lon float64) string {
		lookupCtx, cancel := context.WithTimeout(ctx, placeLookupTimeout)
		defer cancel()

		result, err := s.geocoder.ReverseGeocode(lookupCtx, lat, lon)
		if err != nil {
			s.logger.Warn("reverse geocode failed", "lat", lat, "lon", lon, "error", err)
			return ""
		}
		return result.FormattedAddress
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeGeoJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
