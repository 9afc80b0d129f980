package domain

// FilterByYear returns the points dated in year, in source order.
func FilterByYear(points []Point, year int) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Year() == year {
			out = append(out, p)
		}
	}
	return out
}

// FilterByTimestamp returns the points whose Timestamp equals ts exactly.
func FilterByTimestamp(points []Point, ts string) []Point {
	var out []Point
	for _, p := range points {
		if p.Timestamp() == ts {
			out = append(out, p)
		}
	}
	return out
}

// GroupByStorm partitions points by storm identifier. Tracks appear in the
// order their first point appears, and each track keeps its points in source
// order. The name of a track is the first non-default name seen.
func GroupByStorm(points []Point) []StormTrack {
	index := make(map[int]int)
	var tracks []StormTrack
	for _, p := range points {
		i, ok := index[p.StormID]
		if !ok {
			i = len(tracks)
			index[p.StormID] = i
			tracks = append(tracks, StormTrack{StormID: p.StormID, Name: p.Name})
		}
		t := &tracks[i]
		if t.Name == UnknownName && p.Name != UnknownName {
			t.Name = p.Name
		}
		t.Points = append(t.Points, p)
	}
	return tracks
}

// UniqueTimestamps returns the distinct frame keys in first-appearance order.
// The result is not sorted chronologically.
func UniqueTimestamps(points []Point) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range points {
		ts := p.Timestamp()
		if _, ok := seen[ts]; ok {
			continue
		}
		seen[ts] = struct{}{}
		out = append(out, ts)
	}
	return out
}

// Years returns the distinct years present in points, in first-appearance order.
func Years(points []Point) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, p := range points {
		y := p.Year()
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, y)
	}
	return out
}
