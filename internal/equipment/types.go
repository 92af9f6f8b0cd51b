// Package equipment holds the domain types shared by ingestion, storage and
// reporting, together with the error taxonomy callers switch on.
//
// Everything here is plain data. Validation lives in core, persistence in
// store, rendering in report.
package equipment

import "time"

// ValidatedRow is one equipment record that survived ingestion.
// All three numeric fields are finite.
type ValidatedRow struct {
	Name        string  `json:"name" yaml:"name"`
	Category    string  `json:"category" yaml:"category"`
	Flowrate    float64 `json:"flowrate" yaml:"flowrate"`
	Pressure    float64 `json:"pressure" yaml:"pressure"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// MetricStats holds the rounded aggregates for one numeric column.
type MetricStats struct {
	Avg float64 `json:"avg" yaml:"avg"`
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Summary is the aggregate view of a non-empty row set.
// The distribution counts always add up to TotalCount.
type Summary struct {
	TotalCount   int            `json:"total_count" yaml:"total_count"`
	TotalTypes   int            `json:"total_types" yaml:"total_types"`
	Flowrate     MetricStats    `json:"flowrate" yaml:"flowrate"`
	Pressure     MetricStats    `json:"pressure" yaml:"pressure"`
	Temperature  MetricStats    `json:"temperature" yaml:"temperature"`
	Distribution map[string]int `json:"type_distribution" yaml:"type_distribution"`
}

// Metric names a numeric column in reports and tables.
type Metric struct {
	Label string
	Stats MetricStats
}

// Metrics returns the three metrics in their fixed report order.
func (s Summary) Metrics() []Metric {
	return []Metric{
		{Label: "Flowrate", Stats: s.Flowrate},
		{Label: "Pressure", Stats: s.Pressure},
		{Label: "Temperature", Stats: s.Temperature},
	}
}

// ArtifactSummary is the lightweight listing view of a stored artifact.
type ArtifactSummary struct {
	ID         string    `json:"id" yaml:"id"`
	OwnerID    string    `json:"-" yaml:"-"`
	Filename   string    `json:"filename" yaml:"filename"`
	CreatedAt  time.Time `json:"upload_date" yaml:"upload_date"`
	Summary    Summary   `json:"summary" yaml:"summary"`
	EntryCount int       `json:"entry_count" yaml:"entry_count"`
}

// Artifact is one persisted ingestion result. It is never mutated after
// creation; rows keep the order of the source file.
type Artifact struct {
	ArtifactSummary `yaml:",inline"`
	Rows            []ValidatedRow `json:"data" yaml:"data"`
}
