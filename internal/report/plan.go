// Package report renders a stored equipment dataset as a PDF.
//
// Rendering happens in two steps. Plan turns an artifact into an ordered
// list of blocks (headings, tables, charts, page breaks) with every string
// already formatted; it is pure and cheap, and tests assert on it directly.
// Render then draws the charts in parallel and lays the blocks out with
// fpdf. A chart that fails to draw is skipped; only a failure of the PDF
// itself is an error.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/JonMunkholm/equipreport/internal/equipment"
)

// SampleRows is how many rows the trend chart and row table show.
const SampleRows = 20

const (
	nameWidth     = 30
	categoryWidth = 20
	timeLayout    = "2006-01-02 15:04:05"
)

// BlockKind identifies what a Block draws.
type BlockKind int

const (
	BlockTitle BlockKind = iota
	BlockHeading
	BlockInfo
	BlockTable
	BlockPageBreak
	BlockPieChart
	BlockBarChart
	BlockTrendChart
)

func (k BlockKind) String() string {
	switch k {
	case BlockTitle:
		return "title"
	case BlockHeading:
		return "heading"
	case BlockInfo:
		return "info"
	case BlockTable:
		return "table"
	case BlockPageBreak:
		return "page_break"
	case BlockPieChart:
		return "pie_chart"
	case BlockBarChart:
		return "bar_chart"
	case BlockTrendChart:
		return "trend_chart"
	default:
		return "unknown"
	}
}

// Block is one element of the document, in drawing order.
type Block struct {
	Kind  BlockKind
	Text  string // Title and heading text
	Table *Table // Info and table blocks
	Chart *Chart // Chart blocks
}

// Table is a grid of preformatted cells. Widths are relative weights.
type Table struct {
	Header []string
	Rows   [][]string
	Widths []float64
}

// Chart is the data behind one chart image.
type Chart struct {
	Title  string
	Slices []Slice  // Pie and bar charts
	Series []Series // Trend chart
}

// Slice is one labelled category value.
type Slice struct {
	Label string
	Value float64
	Color string // Hex, no leading '#'
}

// Series is one named line of the trend chart.
type Series struct {
	Name   string
	Color  string
	Values []float64
}

// Document is a planned report.
type Document struct {
	Blocks []Block
}

// Kinds returns the block kinds in order.
func (d Document) Kinds() []BlockKind {
	kinds := make([]BlockKind, len(d.Blocks))
	for i, b := range d.Blocks {
		kinds[i] = b.Kind
	}
	return kinds
}

// pieColors cycle across pie slices.
var pieColors = []string{
	"ef4444", "f97316", "f59e0b", "eab308", "84cc16",
	"22c55e", "10b981", "14b8a6", "06b6d4", "0ea5e9",
	"3b82f6", "6366f1", "8b5cf6", "a855f7", "d946ef",
}

const barColor = "ef4444"

var seriesColors = map[string]string{
	"Flowrate":    "3b82f6",
	"Pressure":    "ef4444",
	"Temperature": "10b981",
}

// Plan lays out the report for a. generated is the time printed in the
// info block.
//
// Sections missing their data are left out: an empty category distribution
// drops the distribution table, pie and bar charts; an empty row set drops
// the trend chart and the row table.
func Plan(a equipment.Artifact, generated time.Time) Document {
	var doc Document
	add := func(b Block) { doc.Blocks = append(doc.Blocks, b) }

	add(Block{Kind: BlockTitle, Text: "Chemical Equipment Analysis Report"})
	add(Block{Kind: BlockInfo, Table: infoTable(a, generated)})

	add(Block{Kind: BlockHeading, Text: "Summary Statistics"})
	add(Block{Kind: BlockTable, Table: summaryTable(a.Summary)})

	hasDist := len(a.Summary.Distribution) > 0
	hasRows := len(a.Rows) > 0

	if hasDist {
		add(Block{Kind: BlockHeading, Text: "Equipment Type Distribution"})
		add(Block{Kind: BlockTable, Table: distributionTable(a.Summary)})
	}

	if hasDist || hasRows {
		add(Block{Kind: BlockPageBreak})
		add(Block{Kind: BlockHeading, Text: "Data Visualizations"})
	}
	if hasDist {
		add(Block{Kind: BlockPieChart, Chart: pieChart(a.Summary)})
		add(Block{Kind: BlockBarChart, Chart: barChart(a.Summary)})
	}
	if hasRows {
		add(Block{Kind: BlockTrendChart, Chart: trendChart(a.Rows)})

		add(Block{Kind: BlockPageBreak})
		add(Block{Kind: BlockHeading, Text: fmt.Sprintf("Equipment Data (First %d rows)", SampleRows)})
		add(Block{Kind: BlockTable, Table: rowTable(a.Rows)})
	}

	return doc
}

func infoTable(a equipment.Artifact, generated time.Time) *Table {
	return &Table{
		Rows: [][]string{
			{"Report Generated:", generated.Format(timeLayout)},
			{"Dataset:", a.Filename},
			{"Upload Date:", a.CreatedAt.Format(timeLayout)},
			{"Total Equipment:", strconv.Itoa(a.Summary.TotalCount)},
		},
		Widths: []float64{1, 2},
	}
}

func summaryTable(s equipment.Summary) *Table {
	t := &Table{
		Header: []string{"Parameter", "Average", "Minimum", "Maximum"},
		Widths: []float64{2, 1.5, 1.5, 1.5},
	}
	for _, m := range s.Metrics() {
		t.Rows = append(t.Rows, []string{
			m.Label,
			formatFixed(m.Stats.Avg, 2),
			formatFixed(m.Stats.Min, 2),
			formatFixed(m.Stats.Max, 2),
		})
	}
	return t
}

// distributionTable lists categories by name.
func distributionTable(s equipment.Summary) *Table {
	total := distributionTotal(s)
	t := &Table{
		Header: []string{"Equipment Type", "Count", "Percentage"},
		Widths: []float64{3, 1.5, 1.5},
	}
	for _, cat := range sortedKeys(s.Distribution) {
		n := s.Distribution[cat]
		t.Rows = append(t.Rows, []string{
			cat,
			strconv.Itoa(n),
			formatFixed(percent(n, total), 1) + "%",
		})
	}
	return t
}

// pieChart and barChart order categories largest first.
func pieChart(s equipment.Summary) *Chart {
	total := distributionTotal(s)
	c := &Chart{Title: "Equipment Type Distribution"}
	for i, cat := range byCountDesc(s.Distribution) {
		n := s.Distribution[cat]
		c.Slices = append(c.Slices, Slice{
			Label: fmt.Sprintf("%s (%s%%)", cat, formatFixed(percent(n, total), 1)),
			Value: float64(n),
			Color: pieColors[i%len(pieColors)],
		})
	}
	return c
}

func barChart(s equipment.Summary) *Chart {
	c := &Chart{Title: "Equipment Count by Type"}
	for _, cat := range byCountDesc(s.Distribution) {
		n := s.Distribution[cat]
		c.Slices = append(c.Slices, Slice{
			Label: fmt.Sprintf("%s: %d", cat, n),
			Value: float64(n),
			Color: barColor,
		})
	}
	return c
}

func trendChart(rows []equipment.ValidatedRow) *Chart {
	sample := sampleRows(rows)
	flow := make([]float64, len(sample))
	pressure := make([]float64, len(sample))
	temp := make([]float64, len(sample))
	for i, r := range sample {
		flow[i] = r.Flowrate
		pressure[i] = r.Pressure
		temp[i] = r.Temperature
	}
	return &Chart{
		Title: fmt.Sprintf("Parameter Trends (First %d Items)", SampleRows),
		Series: []Series{
			{Name: "Flowrate", Color: seriesColors["Flowrate"], Values: flow},
			{Name: "Pressure", Color: seriesColors["Pressure"], Values: pressure},
			{Name: "Temperature", Color: seriesColors["Temperature"], Values: temp},
		},
	}
}

func rowTable(rows []equipment.ValidatedRow) *Table {
	t := &Table{
		Header: []string{"Equipment Name", "Type", "Flowrate", "Pressure", "Temp"},
		Widths: []float64{3, 2, 1.2, 1.2, 1.2},
	}
	for _, r := range sampleRows(rows) {
		t.Rows = append(t.Rows, []string{
			Truncate(r.Name, nameWidth),
			Truncate(r.Category, categoryWidth),
			formatFixed(r.Flowrate, 1),
			formatFixed(r.Pressure, 1),
			formatFixed(r.Temperature, 1),
		})
	}
	return t
}

func sampleRows(rows []equipment.ValidatedRow) []equipment.ValidatedRow {
	if len(rows) > SampleRows {
		return rows[:SampleRows]
	}
	return rows
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// distributionTotal is the percentage denominator. It falls back to the sum
// of counts if TotalCount is unset.
func distributionTotal(s equipment.Summary) int {
	if s.TotalCount > 0 {
		return s.TotalCount
	}
	total := 0
	for _, n := range s.Distribution {
		total += n
	}
	return total
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func formatFixed(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func byCountDesc(m map[string]int) []string {
	keys := sortedKeys(m)
	sort.SliceStable(keys, func(i, j int) bool {
		return m[keys[i]] > m[keys[j]]
	})
	return keys
}
