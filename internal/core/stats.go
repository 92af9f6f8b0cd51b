package core

import (
	"math"

	"github.com/JonMunkholm/equipreport/internal/equipment"
)

// Summarize computes aggregate and categorical metrics over rows.
// rows must be non-empty; Ingest guarantees that. An empty slice returns
// equipment.ErrNoRows.
func Summarize(rows []equipment.ValidatedRow) (equipment.Summary, error) {
	if len(rows) == 0 {
		return equipment.Summary{}, equipment.ErrNoRows
	}

	flow := newAccumulator(rows[0].Flowrate)
	pressure := newAccumulator(rows[0].Pressure)
	temp := newAccumulator(rows[0].Temperature)
	dist := make(map[string]int)

	for _, row := range rows {
		flow.add(row.Flowrate)
		pressure.add(row.Pressure)
		temp.add(row.Temperature)
		dist[row.Category]++
	}

	return equipment.Summary{
		TotalCount:   len(rows),
		TotalTypes:   len(dist),
		Flowrate:     flow.stats(),
		Pressure:     pressure.stats(),
		Temperature:  temp.stats(),
		Distribution: dist,
	}, nil
}

// Round2 rounds to 2 decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// accumulator tracks one metric in a single pass.
type accumulator struct {
	sum, min, max float64
	n             int
}

func newAccumulator(first float64) *accumulator {
	return &accumulator{min: first, max: first}
}

func (a *accumulator) add(v float64) {
	a.sum += v
	a.n++
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
}

func (a *accumulator) stats() equipment.MetricStats {
	return equipment.MetricStats{
		Avg: Round2(a.sum / float64(a.n)),
		Min: Round2(a.min),
		Max: Round2(a.max),
	}
}
