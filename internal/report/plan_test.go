package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/equipreport/internal/equipment"
)

var generated = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func scenario() equipment.Artifact {
	return equipment.Artifact{
		ArtifactSummary: equipment.ArtifactSummary{
			ID:        "3b241101-e2bb-4255-8caf-4136c566a962",
			Filename:  "plant.csv",
			CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			Summary: equipment.Summary{
				TotalCount:   3,
				TotalTypes:   3,
				Flowrate:     equipment.MetricStats{Avg: 176.83, Min: 150.5, Max: 200},
				Pressure:     equipment.MetricStats{Avg: 26.93, Min: 20.5, Max: 35},
				Temperature:  equipment.MetricStats{Avg: 116.67, Min: 80, Max: 150},
				Distribution: map[string]int{"Reactor": 1, "Pump": 1, "Heat Exchanger": 1},
			},
			EntryCount: 3,
		},
		Rows: []equipment.ValidatedRow{
			{Name: "A", Category: "Reactor", Flowrate: 150.5, Pressure: 25.3, Temperature: 120},
			{Name: "B", Category: "Pump", Flowrate: 200, Pressure: 35, Temperature: 80},
			{Name: "C", Category: "Heat Exchanger", Flowrate: 180, Pressure: 20.5, Temperature: 150},
		},
	}
}

func TestPlan_SectionOrder(t *testing.T) {
	doc := Plan(scenario(), generated)

	want := []BlockKind{
		BlockTitle, BlockInfo,
		BlockHeading, BlockTable, // summary
		BlockHeading, BlockTable, // distribution
		BlockPageBreak, BlockHeading,
		BlockPieChart, BlockBarChart, BlockTrendChart,
		BlockPageBreak, BlockHeading, BlockTable, // rows
	}
	if diff := cmp.Diff(want, doc.Kinds()); diff != "" {
		t.Errorf("block order mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_EmptyDistributionOmitsSections(t *testing.T) {
	a := scenario()
	a.Summary.Distribution = map[string]int{}

	doc := Plan(a, generated)

	for _, b := range doc.Blocks {
		switch b.Kind {
		case BlockPieChart, BlockBarChart:
			t.Errorf("unexpected %s block with empty distribution", b.Kind)
		case BlockHeading:
			if b.Text == "Equipment Type Distribution" {
				t.Error("distribution heading present with empty distribution")
			}
		}
	}
	if !hasKind(doc, BlockTrendChart) {
		t.Error("trend chart missing; rows are still present")
	}
}

func TestPlan_NoDataKeepsSummaryOnly(t *testing.T) {
	a := scenario()
	a.Summary.Distribution = nil
	a.Rows = nil

	want := []BlockKind{BlockTitle, BlockInfo, BlockHeading, BlockTable}
	if diff := cmp.Diff(want, Plan(a, generated).Kinds()); diff != "" {
		t.Errorf("block order mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_InfoBlock(t *testing.T) {
	doc := Plan(scenario(), generated)
	info := doc.Blocks[1].Table

	want := [][]string{
		{"Report Generated:", "2024-05-06 07:08:09"},
		{"Dataset:", "plant.csv"},
		{"Upload Date:", "2024-05-01 10:00:00"},
		{"Total Equipment:", "3"},
	}
	if diff := cmp.Diff(want, info.Rows); diff != "" {
		t.Errorf("info rows mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_SummaryTable(t *testing.T) {
	table := findTable(t, Plan(scenario(), generated), "Summary Statistics")

	want := [][]string{
		{"Flowrate", "176.83", "150.50", "200.00"},
		{"Pressure", "26.93", "20.50", "35.00"},
		{"Temperature", "116.67", "80.00", "150.00"},
	}
	if diff := cmp.Diff(want, table.Rows); diff != "" {
		t.Errorf("summary rows mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_DistributionTableSortedByKey(t *testing.T) {
	a := scenario()
	a.Summary.TotalCount = 6
	a.Summary.Distribution = map[string]int{"Pump": 3, "Reactor": 2, "Heat Exchanger": 1}

	table := findTable(t, Plan(a, generated), "Equipment Type Distribution")

	want := [][]string{
		{"Heat Exchanger", "1", "16.7%"},
		{"Pump", "3", "50.0%"},
		{"Reactor", "2", "33.3%"},
	}
	if diff := cmp.Diff(want, table.Rows); diff != "" {
		t.Errorf("distribution rows mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_ChartLabels(t *testing.T) {
	a := scenario()
	a.Summary.TotalCount = 4
	a.Summary.Distribution = map[string]int{"Pump": 2, "Reactor": 1, "Heat Exchanger": 1}
	doc := Plan(a, generated)

	var pie, bar *Chart
	for _, b := range doc.Blocks {
		switch b.Kind {
		case BlockPieChart:
			pie = b.Chart
		case BlockBarChart:
			bar = b.Chart
		}
	}

	var pieLabels, barLabels []string
	for _, s := range pie.Slices {
		pieLabels = append(pieLabels, s.Label)
	}
	for _, s := range bar.Slices {
		barLabels = append(barLabels, s.Label)
	}

	wantPie := []string{"Pump (50.0%)", "Heat Exchanger (25.0%)", "Reactor (25.0%)"}
	if diff := cmp.Diff(wantPie, pieLabels); diff != "" {
		t.Errorf("pie labels mismatch (-want +got):\n%s", diff)
	}
	wantBar := []string{"Pump: 2", "Heat Exchanger: 1", "Reactor: 1"}
	if diff := cmp.Diff(wantBar, barLabels); diff != "" {
		t.Errorf("bar labels mismatch (-want +got):\n%s", diff)
	}
	if pie.Slices[0].Color == pie.Slices[1].Color {
		t.Error("adjacent pie slices share a colour")
	}
}

func TestPlan_RowSamplingAndTruncation(t *testing.T) {
	a := scenario()
	a.Rows = nil
	for i := 0; i < 25; i++ {
		a.Rows = append(a.Rows, equipment.ValidatedRow{
			Name:        strings.Repeat("N", 40),
			Category:    strings.Repeat("é", 25),
			Flowrate:    float64(i) + 0.26,
			Pressure:    1.04,
			Temperature: -3.36,
		})
	}

	doc := Plan(a, generated)

	rows := findTable(t, doc, fmt.Sprintf("Equipment Data (First %d rows)", SampleRows)).Rows
	if len(rows) != SampleRows {
		t.Fatalf("row table has %d rows, want %d", len(rows), SampleRows)
	}
	want := []string{strings.Repeat("N", 30), strings.Repeat("é", 20), "0.3", "1.0", "-3.4"}
	if diff := cmp.Diff(want, rows[0]); diff != "" {
		t.Errorf("first row mismatch (-want +got):\n%s", diff)
	}

	for _, b := range doc.Blocks {
		if b.Kind != BlockTrendChart {
			continue
		}
		if len(b.Chart.Series) != 3 {
			t.Fatalf("trend has %d series, want 3", len(b.Chart.Series))
		}
		for _, s := range b.Chart.Series {
			if len(s.Values) != SampleRows {
				t.Errorf("series %s has %d points, want %d", s.Name, len(s.Values), SampleRows)
			}
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"longer than ten", 10, "longer tha"},
		{"日本語テキスト", 3, "日本語"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func hasKind(doc Document, k BlockKind) bool {
	for _, b := range doc.Blocks {
		if b.Kind == k {
			return true
		}
	}
	return false
}

// findTable returns the table that follows the heading with text.
func findTable(t *testing.T, doc Document, heading string) *Table {
	t.Helper()
	for i, b := range doc.Blocks {
		if b.Kind == BlockHeading && b.Text == heading && i+1 < len(doc.Blocks) {
			if next := doc.Blocks[i+1]; next.Kind == BlockTable {
				return next.Table
			}
		}
	}
	t.Fatalf("no table under heading %q", heading)
	return nil
}
