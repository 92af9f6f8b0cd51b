package report

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/equipreport/internal/equipment"
	"github.com/JonMunkholm/equipreport/internal/logging"
)

// ChartConcurrency caps how many charts of one report draw at once.
const ChartConcurrency = 3

// Renderer produces PDF reports. It holds no per-render state and is safe
// for concurrent use.
type Renderer struct {
	now      func() time.Time
	charts   map[BlockKind]chartFunc
	compress bool
}

// NewRenderer returns a Renderer with the standard charts.
func NewRenderer() *Renderer {
	return &Renderer{
		now:      time.Now,
		charts:   chartFuncs,
		compress: true,
	}
}

// Plan returns the block layout Render would draw for a right now.
func (r *Renderer) Plan(a equipment.Artifact) Document {
	return Plan(a, r.now())
}

// Render draws the report for a.
//
// Charts are drawn in parallel. A chart that errors or panics is logged and
// left out; the returned error is non-nil only when the PDF itself cannot be
// produced (*equipment.RenderError) or ctx ends first.
func (r *Renderer) Render(ctx context.Context, a equipment.Artifact) ([]byte, error) {
	doc := r.Plan(a)

	images, err := r.drawCharts(ctx, doc)
	if err != nil {
		return nil, err
	}

	body, err := assemble(doc, images, r.compress, logging.WithFields(ctx, "dataset_id", a.ID))
	if err != nil {
		return nil, &equipment.RenderError{Err: err}
	}
	return body, nil
}

// drawCharts renders every chart block and returns PNGs keyed by block
// index. Failed charts are absent from the map.
func (r *Renderer) drawCharts(ctx context.Context, doc Document) (map[int][]byte, error) {
	logger := logging.FromContext(ctx)
	results := make([][]byte, len(doc.Blocks))

	g := new(errgroup.Group)
	g.SetLimit(ChartConcurrency)

	for i, b := range doc.Blocks {
		draw, ok := r.charts[b.Kind]
		if !ok || b.Chart == nil {
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			png, err := safeDraw(draw, b.Chart)
			if err != nil {
				logger.Warn("chart skipped", "chart", b.Kind.String(), "title", b.Chart.Title, "error", err)
				return nil
			}
			results[i] = png
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	images := make(map[int][]byte)
	for i, png := range results {
		if png != nil {
			images[i] = png
		}
	}
	return images, nil
}

// safeDraw runs draw, converting a panic into an error.
func safeDraw(draw chartFunc, c *Chart) (png []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return draw(c)
}
