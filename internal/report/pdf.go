package report

import (
	"bytes"
	"fmt"
	"image/png"
	"log/slog"
	"strconv"

	"github.com/go-pdf/fpdf"
)

type rgb struct{ r, g, b int }

var (
	titleColor      = rgb{26, 35, 126}
	headingColor    = rgb{40, 53, 147}
	headerFill      = rgb{25, 118, 210}
	infoFill        = rgb{227, 242, 253}
	stripeFill      = rgb{245, 245, 245}
	gridColor       = rgb{189, 189, 189}
	textColor       = rgb{33, 33, 33}
	white           = rgb{255, 255, 255}
	chartWidthRatio = 0.85
)

const (
	margin    = 15.0
	rowHeight = 7.0
)

// pdfWriter wraps fpdf with the report's typography.
type pdfWriter struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	usable float64
	logger *slog.Logger
}

// assemble lays doc out as a PDF. images holds chart PNGs by block index;
// chart blocks without an image are skipped.
func assemble(doc Document, images map[int][]byte, compress bool, logger *slog.Logger) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCreator("equipreport", true)
	pdf.SetTitle("Chemical Equipment Analysis Report", true)

	pageW, _ := pdf.GetPageSize()
	w := &pdfWriter{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		usable: pageW - 2*margin,
		logger: logger,
	}

	pdf.AddPage()
	for i, b := range doc.Blocks {
		switch b.Kind {
		case BlockTitle:
			w.title(b.Text)
		case BlockHeading:
			w.heading(b.Text)
		case BlockInfo:
			w.info(b.Table)
		case BlockTable:
			w.table(b.Table)
		case BlockPageBreak:
			pdf.AddPage()
		case BlockPieChart, BlockBarChart, BlockTrendChart:
			if img, ok := images[i]; ok {
				w.image("chart-"+strconv.Itoa(i), img)
			}
		}
		if pdf.Err() {
			return nil, fmt.Errorf("block %d (%s): %w", i, b.Kind, pdf.Error())
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *pdfWriter) setText(c rgb) { w.pdf.SetTextColor(c.r, c.g, c.b) }
func (w *pdfWriter) setFill(c rgb) { w.pdf.SetFillColor(c.r, c.g, c.b) }

func (w *pdfWriter) title(text string) {
	w.pdf.SetFont("Helvetica", "B", 20)
	w.setText(titleColor)
	w.pdf.CellFormat(0, 12, w.tr(text), "", 1, "C", false, 0, "")
	w.pdf.Ln(6)
}

func (w *pdfWriter) heading(text string) {
	w.pdf.Ln(4)
	w.pdf.SetFont("Helvetica", "B", 14)
	w.setText(headingColor)
	w.pdf.CellFormat(0, 9, w.tr(text), "", 1, "L", false, 0, "")
	w.pdf.Ln(2)
}

func (w *pdfWriter) columnWidths(t *Table) []float64 {
	total := 0.0
	for _, wt := range t.Widths {
		total += wt
	}
	cols := len(t.Header)
	if cols == 0 && len(t.Rows) > 0 {
		cols = len(t.Rows[0])
	}
	widths := make([]float64, cols)
	for i := range widths {
		if total > 0 && i < len(t.Widths) {
			widths[i] = w.usable * t.Widths[i] / total
		} else {
			widths[i] = w.usable / float64(cols)
		}
	}
	return widths
}

// info draws a borderless two-column label/value block.
func (w *pdfWriter) info(t *Table) {
	widths := w.columnWidths(t)
	w.setFill(infoFill)
	w.setText(textColor)
	for _, row := range t.Rows {
		for c, cell := range row {
			style := ""
			if c == 0 {
				style = "B"
			}
			w.pdf.SetFont("Helvetica", style, 10)
			w.pdf.CellFormat(widths[c], rowHeight, w.tr(cell), "", 0, "L", true, 0, "")
		}
		w.pdf.Ln(rowHeight)
	}
	w.pdf.Ln(4)
}

// table draws a gridded table with a coloured header row and striped body.
func (w *pdfWriter) table(t *Table) {
	widths := w.columnWidths(t)
	w.pdf.SetDrawColor(gridColor.r, gridColor.g, gridColor.b)

	if len(t.Header) > 0 {
		w.pdf.SetFont("Helvetica", "B", 10)
		w.setFill(headerFill)
		w.setText(white)
		for c, h := range t.Header {
			w.pdf.CellFormat(widths[c], rowHeight, w.tr(h), "1", 0, "C", true, 0, "")
		}
		w.pdf.Ln(rowHeight)
	}

	w.pdf.SetFont("Helvetica", "", 9)
	w.setText(textColor)
	for r, row := range t.Rows {
		fill := r%2 == 1
		if fill {
			w.setFill(stripeFill)
		}
		for c, cell := range row {
			if c >= len(widths) {
				break
			}
			align := "C"
			if c == 0 {
				align = "L"
			}
			w.pdf.CellFormat(widths[c], rowHeight-1, w.tr(cell), "1", 0, align, fill, 0, "")
		}
		w.pdf.Ln(rowHeight - 1)
	}
	w.pdf.Ln(4)
}

// image places a PNG centred at chartWidthRatio of the usable width, moving
// to a new page if it would not fit. An undecodable image is skipped.
func (w *pdfWriter) image(name string, data []byte) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		w.logger.Warn("chart skipped: unreadable image", "chart", name, "error", err)
		return
	}

	w.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
	if w.pdf.Err() {
		w.logger.Warn("chart skipped: image rejected", "chart", name, "error", w.pdf.Error())
		w.pdf.ClearError()
		return
	}

	imgW := w.usable * chartWidthRatio
	imgH := imgW * float64(cfg.Height) / float64(cfg.Width)

	_, pageH := w.pdf.GetPageSize()
	if w.pdf.GetY()+imgH > pageH-margin {
		w.pdf.AddPage()
	}

	x := margin + (w.usable-imgW)/2
	y := w.pdf.GetY()
	w.pdf.ImageOptions(name, x, y, imgW, imgH, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	w.pdf.SetY(y + imgH + 6)
}
