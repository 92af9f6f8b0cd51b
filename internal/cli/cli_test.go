package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/equipreport/internal/core"
	"github.com/JonMunkholm/equipreport/internal/equipment"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

const plantCSV = `Equipment Name,Type,Flowrate,Pressure,Temperature
Pump-1,Pump,120.5,5.2,150.5
Valve-1,Valve,80,3.1,180
HX-1,HeatExchanger,200,7.5,200
`

// workspace is a temp dir holding a CSV and the equipctl storage flags.
type workspace struct {
	dir  string
	csv  string
	args []string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "plant.csv")
	if err := os.WriteFile(csvPath, []byte(plantCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return &workspace{
		dir: dir,
		csv: csvPath,
		args: []string{
			"--owner", "alice",
			"--db", "sqlite://" + filepath.Join(dir, "meta.db"),
			"--blob-dir", filepath.Join(dir, "blobs"),
		},
	}
}

func (w *workspace) run(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Run(context.Background(), append(args, w.args...), &out, &errOut)
	return out.String(), errOut.String(), code
}

func (w *workspace) ingest(t *testing.T) core.IngestResult {
	t.Helper()
	out, errOut, code := w.run(t, "ingest", w.csv, "--format", "json")
	if code != 0 {
		t.Fatalf("ingest exit %d: %s", code, errOut)
	}
	var res core.IngestResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode ingest output: %v\n%s", err, out)
	}
	return res
}

func TestSummarize(t *testing.T) {
	w := newWorkspace(t)

	tests := []struct {
		format string
		decode func([]byte, any) error
	}{
		{"json", json.Unmarshal},
		{"yaml", yaml.Unmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, errOut, code := w.run(t, "summarize", w.csv, "--format", tt.format)
			if code != 0 {
				t.Fatalf("exit %d: %s", code, errOut)
			}

			var got summaryOutput
			if err := tt.decode([]byte(out), &got); err != nil {
				t.Fatalf("decode: %v\n%s", err, out)
			}
			want := summaryOutput{
				File: "plant.csv",
				Summary: equipment.Summary{
					TotalCount:   3,
					TotalTypes:   3,
					Flowrate:     equipment.MetricStats{Avg: 133.5, Min: 80, Max: 200},
					Pressure:     equipment.MetricStats{Avg: 5.27, Min: 3.1, Max: 7.5},
					Temperature:  equipment.MetricStats{Avg: 176.83, Min: 150.5, Max: 200},
					Distribution: map[string]int{"Pump": 1, "Valve": 1, "HeatExchanger": 1},
				},
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("summary mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSummarize_ValidationError(t *testing.T) {
	w := newWorkspace(t)
	bad := filepath.Join(w.dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("Equipment Name,Type,Flowrate,Temperature\nA,Pump,1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, errOut, code := w.run(t, "summarize", bad)
	if code == 0 {
		t.Fatal("expected non-zero exit")
	}
	for _, want := range []string{"Pressure", "VAL001"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr %q missing %q", errOut, want)
		}
	}
}

func TestSummarize_UnknownFormat(t *testing.T) {
	w := newWorkspace(t)
	if _, _, code := w.run(t, "summarize", w.csv, "--format", "xml"); code == 0 {
		t.Error("expected failure for unknown format")
	}
}

func TestIngestListShowDelete(t *testing.T) {
	w := newWorkspace(t)
	res := w.ingest(t)

	out, _, code := w.run(t, "list")
	if code != 0 {
		t.Fatalf("list exit %d", code)
	}
	if !strings.Contains(out, res.Dataset.ID) || !strings.Contains(out, "plant.csv") {
		t.Errorf("list output missing dataset:\n%s", out)
	}

	out, _, code = w.run(t, "show", res.Dataset.ID, "--rows", "--format", "json")
	if code != 0 {
		t.Fatalf("show exit %d", code)
	}
	var a equipment.Artifact
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatalf("decode show: %v", err)
	}
	if len(a.Rows) != 3 || a.Rows[2].Name != "HX-1" {
		t.Errorf("rows = %+v", a.Rows)
	}

	out, _, code = w.run(t, "delete", res.Dataset.ID)
	if code != 0 || !strings.Contains(out, "deleted") {
		t.Fatalf("delete exit %d: %s", code, out)
	}

	_, errOut, code := w.run(t, "show", res.Dataset.ID)
	if code == 0 || !strings.Contains(errOut, "NF001") {
		t.Errorf("show after delete: exit %d, stderr %q", code, errOut)
	}
}

func TestIngest_Retention(t *testing.T) {
	w := newWorkspace(t)

	var evicted []string
	for i := 0; i < 7; i++ {
		evicted = append(evicted, w.ingest(t).Evicted...)
	}
	if len(evicted) != 2 {
		t.Errorf("evicted %d datasets, want 2", len(evicted))
	}

	out, _, code := w.run(t, "list", "--format", "json")
	if code != 0 {
		t.Fatalf("list exit %d", code)
	}
	var list []equipment.ArtifactSummary
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 5 {
		t.Errorf("list has %d datasets, want 5", len(list))
	}
}

func TestOwnersAreIsolated(t *testing.T) {
	w := newWorkspace(t)
	res := w.ingest(t)

	var out, errOut bytes.Buffer
	args := []string{"show", res.Dataset.ID,
		"--owner", "bob",
		"--db", w.args[3],
		"--blob-dir", w.args[5],
	}
	if code := Run(context.Background(), args, &out, &errOut); code == 0 {
		t.Fatal("bob could read alice's dataset")
	}
	if !strings.Contains(errOut.String(), "NF001") {
		t.Errorf("stderr = %q, want NF001", errOut.String())
	}
}

func TestReport(t *testing.T) {
	w := newWorkspace(t)
	res := w.ingest(t)
	outPath := filepath.Join(w.dir, "out.pdf")

	out, errOut, code := w.run(t, "report", res.Dataset.ID, "-o", outPath)
	if code != 0 {
		t.Fatalf("report exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, outPath) {
		t.Errorf("output = %q", out)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("report is not a PDF")
	}
}

func TestMissingOwner(t *testing.T) {
	var out, errOut bytes.Buffer
	code := Run(context.Background(), []string{"list", "--owner", "", "--db", "memory"}, &out, &errOut)
	if code == 0 {
		t.Fatal("expected failure without owner")
	}
	if !strings.Contains(errOut.String(), "owner is required") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestWriteStructured(t *testing.T) {
	var buf bytes.Buffer
	if err := writeStructured(&buf, "yaml", equipment.MetricStats{Avg: 1.5, Min: 1, Max: 2}); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if got, want := buf.String(), "avg: 1.5\nmin: 1\nmax: 2\n"; got != want {
		t.Errorf("yaml = %q, want %q", got, want)
	}
	if err := writeStructured(&buf, "toml", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}
