package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/cyclone-track-service/internal/adapter/http"
	"github.com/couchcryptid/cyclone-track-service/internal/domain"
	"github.com/couchcryptid/cyclone-track-service/internal/observability"
	"github.com/couchcryptid/cyclone-track-service/internal/viewer"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockGeocoder struct {
	err error
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	if m.err != nil {
		return domain.GeocodingResult{}, m.err
	}
	return domain.GeocodingResult{FormattedAddress: fmt.Sprintf("near %.1f,%.1f", lat, lon)}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func samplePoints() []domain.Point {
	mk := func(id int, tm string, lat, lon, wind float64, grade string) domain.Point {
		return domain.Point{
			StormID: id, Date: "05-06-2001", Time: tm, Lat: lat, Lon: lon,
			WindSpeed: wind, Grade: grade, Color: domain.GradeColor(grade), Name: fmt.Sprintf("STORM %d", id),
		}
	}
	return []domain.Point{
		mk(1, "0000", 10.0, 65.0, 55.6, "D"),
		mk(1, "0300", 10.5, 65.5, 64.8, "DD"),
		mk(2, "0300", 15.0, 88.0, 92.6, "SCS"),
	}
}

func newTestViewer(t *testing.T) *viewer.Viewer {
	t.Helper()
	v, err := viewer.New(2001, observability.NewMetricsForTesting())
	require.NoError(t, err)
	v.Load(samplePoints())
	return v
}

func newTestServer(t *testing.T, readyErr error, geocoder domain.Geocoder) (*httpadapter.Server, *viewer.Viewer) {
	t.Helper()
	v := newTestViewer(t)
	return httpadapter.NewServer(":0", v, &mockReadiness{err: readyErr}, geocoder, discardLogger()), v
}

func do(t *testing.T, srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, reader))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type frameBody struct {
	Year      int    `json:"year"`
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Markers   []struct {
		StormID int    `json:"storm_id"`
		Color   string `json:"color"`
		Place   string `json:"place"`
		Tooltip string `json:"tooltip"`
	} `json:"markers"`
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	ready, _ := newTestServer(t, nil, nil)
	assert.Equal(t, http.StatusOK, do(t, ready, http.MethodGet, "/readyz", "").Code)

	notReady, _ := newTestServer(t, errors.New("source has not been loaded yet"), nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, notReady, http.MethodGet, "/readyz", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestView(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/api/view", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	view := decode[viewer.View](t, rec)
	assert.Equal(t, 2001, view.Year)
	assert.Equal(t, []int{2001}, view.Years)
	assert.Equal(t, 1, view.SliderMax)
	assert.Equal(t, "05-06-20010000", view.Timestamp)
	assert.Len(t, view.Points, 1)
	assert.Len(t, view.Tracks, 2)
	assert.True(t, view.Animating)
}

func TestFrame(t *testing.T) {
	srv, v := newTestServer(t, nil, nil)
	require.NoError(t, v.SetIndex(1))

	rec := do(t, srv, http.MethodGet, "/api/frame", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[frameBody](t, rec)
	assert.Equal(t, "05-06-20010300", body.Timestamp)
	require.Len(t, body.Markers, 2)
	assert.Equal(t, 1, body.Markers[0].StormID)
	assert.Equal(t, "#00faf4", body.Markers[0].Color)
	assert.Equal(t, 2, body.Markers[1].StormID)
	assert.Empty(t, body.Markers[0].Place)
}

func TestFrame_BBox(t *testing.T) {
	srv, v := newTestServer(t, nil, nil)
	require.NoError(t, v.SetIndex(1))

	rec := do(t, srv, http.MethodGet, "/api/frame?bbox=5,80,25,95", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[frameBody](t, rec)
	require.Len(t, body.Markers, 1)
	assert.Equal(t, 2, body.Markers[0].StormID)
}

func TestFrame_BBoxOutsideReturnsEmptyList(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/api/frame?bbox=40,0,50,10", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"markers":[]`)
}

func TestFrame_InvalidBBox(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/api/frame?bbox=25,80,5", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Contains(t, body["error"], "invalid bounding box")
}

func TestFrame_NonFiniteBBox(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	for _, bbox := range []string{"NaN,0,10,10", "0,0,10,Inf", "-Inf,0,10,10"} {
		rec := do(t, srv, http.MethodGet, "/api/frame?bbox="+bbox, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code, bbox)
	}
}

func TestFrame_WithGeocoder(t *testing.T) {
	srv, _ := newTestServer(t, nil, &mockGeocoder{})

	body := decode[frameBody](t, do(t, srv, http.MethodGet, "/api/frame", ""))

	require.Len(t, body.Markers, 1)
	assert.Equal(t, "near 10.0,65.0", body.Markers[0].Place)
	assert.Contains(t, body.Markers[0].Tooltip, "Near: near 10.0,65.0")
}

func TestFrame_GeocoderFailureDegrades(t *testing.T) {
	srv, _ := newTestServer(t, nil, &mockGeocoder{err: errors.New("rate limited")})

	rec := do(t, srv, http.MethodGet, "/api/frame", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[frameBody](t, rec)
	require.Len(t, body.Markers, 1)
	assert.Empty(t, body.Markers[0].Place)
}

func TestFrameGeoJSON(t *testing.T) {
	srv, v := newTestServer(t, nil, nil)
	require.NoError(t, v.SetIndex(1))

	rec := do(t, srv, http.MethodGet, "/api/frame.geojson", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "#ffe775", fc.Features[1].Properties.MustString("color"))
}

func TestStorms(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/api/storms", "")

	require.Equal(t, http.StatusOK, rec.Code)
	storms := decode[[]struct {
		StormID   int            `json:"storm_id"`
		Fixes     int            `json:"fixes"`
		PeakGrade string         `json:"peak_grade"`
		Points    []domain.Point `json:"points"`
	}](t, rec)
	require.Len(t, storms, 2)
	assert.Equal(t, 1, storms[0].StormID)
	assert.Equal(t, 2, storms[0].Fixes)
	assert.Equal(t, "DD", storms[0].PeakGrade)
	assert.Len(t, storms[0].Points, 2)
}

func TestStormsGeoJSON(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/api/storms.geojson", "")

	require.Equal(t, http.StatusOK, rec.Code)
	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)
}

func TestTimestamps(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	body := decode[struct {
		Year       int      `json:"year"`
		Timestamps []string `json:"timestamps"`
	}](t, do(t, srv, http.MethodGet, "/api/timestamps", ""))

	assert.Equal(t, 2001, body.Year)
	assert.Equal(t, []string{"05-06-20010000", "05-06-20010300"}, body.Timestamps)
}

func TestPalette(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	body := decode[struct {
		Grades       []domain.Grade `json:"grades"`
		DefaultColor string         `json:"default_color"`
	}](t, do(t, srv, http.MethodGet, "/api/palette", ""))

	assert.Len(t, body.Grades, 7)
	assert.Equal(t, domain.DefaultColor, body.DefaultColor)
}

func TestSetYear(t *testing.T) {
	srv, v := newTestServer(t, nil, nil)
	require.NoError(t, v.SetIndex(1))

	rec := do(t, srv, http.MethodPut, "/api/controls/year", `{"year": 2005}`)

	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[viewer.View](t, rec)
	assert.Equal(t, 2005, view.Year)
	assert.Equal(t, 0, view.Index, "index clamped for a year without frames")
	assert.Empty(t, view.Points)
}

func TestSetYear_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"out of range", `{"year": 2023}`, "year out of range"},
		{"missing", `{}`, "year is required"},
		{"malformed", `{"year":`, "decode request body"},
		{"unknown field", `{"year": 2001, "month": 5}`, "decode request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, v := newTestServer(t, nil, nil)

			rec := do(t, srv, http.MethodPut, "/api/controls/year", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec)["error"], tt.want)
			assert.Equal(t, 2001, v.Snapshot().Year)
		})
	}
}

func TestSetIndex(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodPut, "/api/controls/index", `{"index": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "05-06-20010300", decode[viewer.View](t, rec).Timestamp)

	rec = do(t, srv, http.MethodPut, "/api/controls/index", `{"index": 2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "timestamp index out of range")
}

func TestPressRelease(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	view := decode[viewer.View](t, do(t, srv, http.MethodPost, "/api/controls/press", ""))
	assert.Equal(t, viewer.Scrubbing, view.Slider)
	assert.False(t, view.Animating)

	view = decode[viewer.View](t, do(t, srv, http.MethodPost, "/api/controls/release", ""))
	assert.Equal(t, viewer.Idle, view.Slider)
	assert.True(t, view.Animating)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/api/controls/year", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
