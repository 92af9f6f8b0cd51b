package core

// convert.go coerces raw CSV cells into measurements and resolves the header
// row against the required column set.
//
// Header matching trims surrounding whitespace and ignores case, so
// " flowrate" and "FLOWRATE" both satisfy Flowrate. A required column that
// matches more than one header is rejected rather than guessed at.

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/equipreport/internal/equipment"
)

// numericRegex validates that a string is a plain decimal or scientific number.
// It rejects the forms strconv accepts but a CSV user never means:
// "Inf", "NaN", hex floats and underscores.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Column describes one required CSV column.
type Column struct {
	Name    string   // Canonical header, used in error messages
	Aliases []string // Other accepted headers
}

func (c Column) headers() []string {
	return append([]string{c.Name}, c.Aliases...)
}

// Positions of the required columns in RequiredColumns.
const (
	colName = iota
	colCategory
	colFlowrate
	colPressure
	colTemperature
)

// RequiredColumns is the exact declared column set of an equipment upload.
var RequiredColumns = []Column{
	colName:        {Name: "Equipment Name", Aliases: []string{"name"}},
	colCategory:    {Name: "Type", Aliases: []string{"category"}},
	colFlowrate:    {Name: "Flowrate"},
	colPressure:    {Name: "Pressure"},
	colTemperature: {Name: "Temperature"},
}

// ParseMeasurement converts a cell to a finite float64.
// Returns false for empty, non-numeric, NaN, infinite or overflowing input.
func ParseMeasurement(s string) (float64, bool) {
	s = CleanCell(s)
	if s == "" || !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// CleanCell removes common spreadsheet artifacts from a numeric cell:
// surrounding whitespace and the Excel formula wrapper (="12.5").
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}

// normalizeHeader folds a header cell for matching.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// resolveHeader maps each required column to its index in header.
// It reports every missing column at once; duplicates are only checked
// when nothing is missing.
func resolveHeader(header []string) ([]int, error) {
	seen := make(map[string][]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		seen[key] = append(seen[key], i)
	}

	positions := make([]int, len(RequiredColumns))
	var missing, duplicated []string

	for ci, col := range RequiredColumns {
		var hits []int
		for _, name := range col.headers() {
			hits = append(hits, seen[normalizeHeader(name)]...)
		}
		switch len(hits) {
		case 0:
			missing = append(missing, col.Name)
		case 1:
			positions[ci] = hits[0]
		default:
			duplicated = append(duplicated, col.Name)
		}
	}

	if len(missing) > 0 {
		return nil, &equipment.ValidationError{Reason: equipment.ReasonMissingColumns, Columns: missing}
	}
	if len(duplicated) > 0 {
		return nil, &equipment.ValidationError{Reason: equipment.ReasonDuplicateColumns, Columns: duplicated}
	}
	return positions, nil
}

// cell returns row[pos], or "" when the row is short.
func cell(row []string, pos int) string {
	if pos < len(row) {
		return row[pos]
	}
	return ""
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
