// Package source fetches the raw observation document from disk or over HTTP.
package source

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/couchcryptid/cyclone-track-service/internal/domain"
)

// ErrNotArray is returned when the document is valid JSON but not an array.
var ErrNotArray = errors.New("source document is not a JSON array")

// Loader reads the source document once per call. It implements
// pipeline.Source.
type Loader struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLoader creates a Loader whose HTTP fetches are bounded by timeout.
func NewLoader(timeout time.Duration, logger *slog.Logger) *Loader {
	return &Loader{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Load retrieves and decodes the records at location, which is a file path or
// an http(s) URL.
func (l *Loader) Load(ctx context.Context, location string) ([]domain.RawRecord, error) {
	var (
		body io.ReadCloser
		err  error
	)
	if isURL(location) {
		body, err = l.fetch(ctx, location)
	} else {
		body, err = openFile(location)
	}
	if err != nil {
		return nil, err
	}
	defer body.Close()

	records, skipped, err := decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", location, err)
	}
	if skipped > 0 {
		l.logger.Warn("skipped non-object array elements", "location", location, "skipped", skipped)
	}
	l.logger.Debug("source decoded", "location", location, "records", len(records))
	return records, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch source: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch source: status %d", resp.StatusCode)
	}

	// resp.Uncompressed means the transport already unwrapped the body.
	if resp.Uncompressed {
		return resp.Body, nil
	}
	if resp.Header.Get("Content-Encoding") == "gzip" || strings.HasSuffix(req.URL.Path, ".gz") {
		return gunzip(resp.Body)
	}
	return resp.Body, nil
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	if strings.HasSuffix(path, ".gz") {
		return gunzip(f)
	}
	return f, nil
}

// gunzip wraps rc so that closing the result closes both readers.
func gunzip(rc io.ReadCloser) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(bufio.NewReader(rc))
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	return &gzipBody{Reader: zr, underlying: rc}, nil
}

type gzipBody struct {
	*gzip.Reader
	underlying io.Closer
}

func (b *gzipBody) Close() error {
	return errors.Join(b.Reader.Close(), b.underlying.Close())
}

// decode streams the top-level array. Elements that are valid JSON but do not
// decode into a record (bare numbers, strings, nested arrays) are counted in
// skipped and left out; only a broken document is an error.
func decode(r io.Reader) (records []domain.RawRecord, skipped int, err error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, 0, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, 0, ErrNotArray
	}

	for i := 0; dec.More(); i++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, 0, fmt.Errorf("element %d: %w", i, err)
		}
		var rec domain.RawRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, 0, err
	}
	return records, skipped, nil
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
