// Package spatial limits a frame's markers to a map viewport using an R-tree.
package spatial

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/dhconnelly/rtreego"

	"github.com/couchcryptid/cyclone-track-service/internal/domain"
)

const (
	tolerance   = 1e-6
	minChildren = 4
	maxChildren = 16
	dimensions  = 2
)

// ErrInvalidBBox is returned for boxes that are malformed or inverted.
var ErrInvalidBBox = errors.New("invalid bounding box")

// BBox is a latitude/longitude viewport. Boxes crossing the antimeridian are
// not supported.
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// ParseBBox parses "minLat,minLon,maxLat,maxLon".
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, fmt.Errorf("%w: want minLat,minLon,maxLat,maxLon", ErrInvalidBBox)
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("%w: %q is not a number", ErrInvalidBBox, part)
		}
		v[i] = f
	}
	b := BBox{MinLat: v[0], MinLon: v[1], MaxLat: v[2], MaxLon: v[3]}
	return b, b.Validate()
}

// Validate checks ranges and orientation.
func (b BBox) Validate() error {
	for _, f := range [...]float64{b.MinLat, b.MinLon, b.MaxLat, b.MaxLon} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite coordinate", ErrInvalidBBox)
		}
	}
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("%w: out of range", ErrInvalidBBox)
	}
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
		return fmt.Errorf("%w: min exceeds max", ErrInvalidBBox)
	}
	return nil
}

// Contains reports whether the point lies inside or on the edge of the box.
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

type item struct {
	seq   int
	point domain.Point
	rect  *rtreego.Rect
}

func (it *item) Bounds() *rtreego.Rect {
	return it.rect
}

// Index is an immutable R-tree over a set of points.
type Index struct {
	tree *rtreego.Rtree
	size int
}

// NewIndex indexes points. The slice is not retained.
func NewIndex(points []domain.Point) *Index {
	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	for i, p := range points {
		tree.Insert(&item{
			seq:   i,
			point: p,
			rect:  rtreego.Point{p.Lat, p.Lon}.ToRect(tolerance),
		})
	}
	return &Index{tree: tree, size: len(points)}
}

// Len returns the number of indexed points.
func (idx *Index) Len() int {
	return idx.size
}

// Within returns the points inside bbox, in indexing order.
func (idx *Index) Within(bbox BBox) ([]domain.Point, error) {
	if err := bbox.Validate(); err != nil {
		return nil, err
	}
	if idx.size == 0 {
		return nil, nil
	}

	// rtreego rejects zero-length sides.
	lengths := []float64{
		maxFloat(bbox.MaxLat-bbox.MinLat, tolerance),
		maxFloat(bbox.MaxLon-bbox.MinLon, tolerance),
	}
	bounds, err := rtreego.NewRect(rtreego.Point{bbox.MinLat, bbox.MinLon}, lengths)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBBox, err)
	}

	hits := idx.tree.SearchIntersect(bounds)
	items := make([]*item, 0, len(hits))
	for _, h := range hits {
		it, ok := h.(*item)
		if !ok || !bbox.Contains(it.point.Lat, it.point.Lon) {
			continue
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].seq < items[j].seq })

	out := make([]domain.Point, len(items))
	for i, it := range items {
		out[i] = it.point
	}
	return out, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
