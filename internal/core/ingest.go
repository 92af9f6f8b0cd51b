package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	"github.com/JonMunkholm/equipreport/internal/equipment"
)

// Ingest parses an equipment CSV into validated rows.
//
// Checks run in a fixed order and the first failure wins:
//  1. The CSV must parse (ReasonMalformed)
//  2. At least one non-blank data row must follow the header (ReasonEmpty)
//  3. Every required column must be present exactly once (ReasonMissingColumns, ReasonDuplicateColumns)
//  4. At least one row must survive numeric coercion (ReasonNoValidRows)
//
// Rows whose flowrate, pressure or temperature cannot be coerced are dropped
// whole. Name and category are passed through unmodified and extra columns
// are ignored. Output order matches file order.
func Ingest(r io.Reader) ([]equipment.ValidatedRow, error) {
	cr := csv.NewReader(NewUploadReader(r))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &equipment.ValidationError{Reason: equipment.ReasonEmpty}
	}
	if err != nil {
		return nil, &equipment.ValidationError{Reason: equipment.ReasonMalformed, Err: err}
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &equipment.ValidationError{Reason: equipment.ReasonMalformed, Err: err}
		}
		if isEmptyRow(rec) {
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, &equipment.ValidationError{Reason: equipment.ReasonEmpty}
	}

	positions, err := resolveHeader(header)
	if err != nil {
		return nil, err
	}

	rows := make([]equipment.ValidatedRow, 0, len(records))
	for _, rec := range records {
		if row, ok := coerceRow(rec, positions); ok {
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return nil, &equipment.ValidationError{Reason: equipment.ReasonNoValidRows}
	}
	return rows, nil
}

// IngestBytes is Ingest over an in-memory file.
func IngestBytes(data []byte) ([]equipment.ValidatedRow, error) {
	return Ingest(bytes.NewReader(data))
}

// coerceRow builds a row from a record, or reports false if any
// measurement fails to parse.
func coerceRow(rec []string, positions []int) (equipment.ValidatedRow, bool) {
	flow, ok := ParseMeasurement(cell(rec, positions[colFlowrate]))
	if !ok {
		return equipment.ValidatedRow{}, false
	}
	pressure, ok := ParseMeasurement(cell(rec, positions[colPressure]))
	if !ok {
		return equipment.ValidatedRow{}, false
	}
	temp, ok := ParseMeasurement(cell(rec, positions[colTemperature]))
	if !ok {
		return equipment.ValidatedRow{}, false
	}
	return equipment.ValidatedRow{
		Name:        cell(rec, positions[colName]),
		Category:    cell(rec, positions[colCategory]),
		Flowrate:    flow,
		Pressure:    pressure,
		Temperature: temp,
	}, true
}
