package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/equipreport/internal/equipment"
)

const scenarioCSV = `Equipment Name,Type,Flowrate,Pressure,Temperature
A,Reactor,150.5,25.3,120.0
B,Pump,200.0,35.0,80.0
C,Heat Exchanger,180.0,20.5,150.0
`

var scenarioRows = []equipment.ValidatedRow{
	{Name: "A", Category: "Reactor", Flowrate: 150.5, Pressure: 25.3, Temperature: 120},
	{Name: "B", Category: "Pump", Flowrate: 200, Pressure: 35, Temperature: 80},
	{Name: "C", Category: "Heat Exchanger", Flowrate: 180, Pressure: 20.5, Temperature: 150},
}

func TestIngest_Scenario(t *testing.T) {
	rows, err := Ingest(strings.NewReader(scenarioCSV))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if diff := cmp.Diff(scenarioRows, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestIngest_Errors(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantReason  equipment.ValidationReason
		wantColumns []string
	}{
		{
			name:       "empty input",
			input:      "",
			wantReason: equipment.ReasonEmpty,
		},
		{
			name:       "header only",
			input:      "Equipment Name,Type,Flowrate,Pressure,Temperature\n",
			wantReason: equipment.ReasonEmpty,
		},
		{
			name:       "header and blank lines",
			input:      "Equipment Name,Type,Flowrate,Pressure,Temperature\n,,,,\n\n",
			wantReason: equipment.ReasonEmpty,
		},
		{
			name:        "missing pressure",
			input:       "Equipment Name,Type,Flowrate,Temperature\nA,Pump,1,2\n",
			wantReason:  equipment.ReasonMissingColumns,
			wantColumns: []string{"Pressure"},
		},
		{
			name:        "several missing",
			input:       "Equipment Name,Flowrate\nA,1\n",
			wantReason:  equipment.ReasonMissingColumns,
			wantColumns: []string{"Type", "Pressure", "Temperature"},
		},
		{
			name:        "duplicate column",
			input:       "Equipment Name,Type,Flowrate,Pressure,Temperature,flowrate\nA,Pump,1,2,3,4\n",
			wantReason:  equipment.ReasonDuplicateColumns,
			wantColumns: []string{"Flowrate"},
		},
		{
			name:        "canonical and alias both present",
			input:       "Equipment Name,name,Type,Flowrate,Pressure,Temperature\nA,A,Pump,1,2,3\n",
			wantReason:  equipment.ReasonDuplicateColumns,
			wantColumns: []string{"Equipment Name"},
		},
		{
			name:       "all temperatures non-numeric",
			input:      "Equipment Name,Type,Flowrate,Pressure,Temperature\nA,Pump,1,2,hot\nB,Pump,1,2,\nC,Pump,1,2,NaN\n",
			wantReason: equipment.ReasonNoValidRows,
		},
		{
			name:       "bad quoting",
			input:      "Equipment Name,Type,Flowrate,Pressure,Temperature\nA,Pu\"mp,1,2,3\n",
			wantReason: equipment.ReasonMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Ingest(strings.NewReader(tt.input))
			var ve *equipment.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Ingest error = %v, want ValidationError", err)
			}
			if ve.Reason != tt.wantReason {
				t.Errorf("Reason = %s, want %s (err: %v)", ve.Reason, tt.wantReason, err)
			}
			if diff := cmp.Diff(tt.wantColumns, ve.Columns); diff != "" {
				t.Errorf("Columns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIngest_MissingPressureMessageNamesColumn(t *testing.T) {
	_, err := IngestBytes([]byte("Equipment Name,Type,Flowrate,Temperature\nA,Pump,1,2\n"))
	if err == nil || !strings.Contains(err.Error(), "Pressure") {
		t.Errorf("error %v does not name Pressure", err)
	}
}

func TestIngest_DropsWholeRowOnAnyBadNumber(t *testing.T) {
	input := `Equipment Name,Type,Flowrate,Pressure,Temperature
A,Pump,1,2,3
B,Pump,x,2,3
C,Pump,1,,3
D,Pump,1,2,Inf
E,Pump,1e2,-2.5,.5
`
	rows, err := IngestBytes([]byte(input))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	want := []equipment.ValidatedRow{
		{Name: "A", Category: "Pump", Flowrate: 1, Pressure: 2, Temperature: 3},
		{Name: "E", Category: "Pump", Flowrate: 100, Pressure: -2.5, Temperature: 0.5},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestIngest_HeaderVariantsAndExtras(t *testing.T) {
	input := "\ufeff name , CATEGORY,flowrate,Pressure ,temperature,Notes,Notes\n" +
		"  Pump 1 ,Pump,\"=\"\"12.5\"\"\", 3 ,40,x,y\n" +
		"Short,Pump,1,2\n"

	rows, err := IngestBytes([]byte(input))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	want := []equipment.ValidatedRow{
		{Name: "  Pump 1 ", Category: "Pump", Flowrate: 12.5, Pressure: 3, Temperature: 40},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestIngest_PreservesOrder(t *testing.T) {
	var b strings.Builder
	b.WriteString("Equipment Name,Type,Flowrate,Pressure,Temperature\n")
	names := []string{"z", "a", "m", "b"}
	for _, n := range names {
		b.WriteString(n + ",T,1,1,1\n")
	}

	rows, err := IngestBytes([]byte(b.String()))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	for i, r := range rows {
		if r.Name != names[i] {
			t.Errorf("row %d name = %q, want %q", i, r.Name, names[i])
		}
	}
}

func TestParseMeasurement(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"12.5", 12.5, true},
		{" -3 ", -3, true},
		{"+4.", 4, true},
		{".25", 0.25, true},
		{"1E3", 1000, true},
		{`="7"`, 7, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"0x10", 0, false},
		{"1_000", 0, false},
		{"1,000", 0, false},
		{"1e400", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseMeasurement(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseMeasurement(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
