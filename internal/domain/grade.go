package domain

import "strings"

// DefaultColor is used for grades outside the palette.
const DefaultColor = "#9e9e9e"

// Grade is one entry of the intensity palette.
type Grade struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Color string `json:"color"`
	Rank  int    `json:"rank"`
}

// Palette lists the seven grades from weakest to strongest.
var Palette = []Grade{
	{Code: "D", Label: "Depression", Color: "#5ebaff", Rank: 1},
	{Code: "DD", Label: "Deep Depression", Color: "#00faf4", Rank: 2},
	{Code: "CS", Label: "Cyclonic Storm", Color: "#ffffcc", Rank: 3},
	{Code: "SCS", Label: "Severe Cyclonic Storm", Color: "#ffe775", Rank: 4},
	{Code: "VSCS", Label: "Very Severe Cyclonic Storm", Color: "#ffc140", Rank: 5},
	{Code: "ESCS", Label: "Extremely Severe Cyclonic Storm", Color: "#ff8f20", Rank: 6},
	{Code: "SuCS", Label: "Super Cyclonic Storm", Color: "#ff6060", Rank: 7},
}

var gradeIndex = buildGradeIndex()

func buildGradeIndex() map[string]Grade {
	idx := make(map[string]Grade, len(Palette)*2)
	for _, g := range Palette {
		idx[strings.ToLower(g.Code)] = g
		idx[strings.ToLower(g.Label)] = g
	}
	return idx
}

// LookupGrade resolves a grade code or label, ignoring case and surrounding
// whitespace.
func LookupGrade(grade string) (Grade, bool) {
	g, ok := gradeIndex[strings.ToLower(strings.TrimSpace(grade))]
	return g, ok
}

// GradeColor returns the marker colour for a grade, or DefaultColor.
func GradeColor(grade string) string {
	if g, ok := LookupGrade(grade); ok {
		return g.Color
	}
	return DefaultColor
}

// gradeRank orders grades by intensity; unknown grades rank 0.
func gradeRank(grade string) int {
	g, _ := LookupGrade(grade)
	return g.Rank
}
