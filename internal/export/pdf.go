// Package export renders load plans to printable and CAD file formats.
package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/CargoFit/internal/exceptions"
	"github.com/piwi3910/CargoFit/internal/model"
)

// stopColor represents an RGB fill color for one delivery stop.
type stopColor struct {
	R, G, B int
}

var stopColors = []stopColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

func colorForStop(stop int) stopColor {
	if stop < 1 {
		stop = 1
	}
	return stopColors[(stop-1)%len(stopColors)]
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 8.0
	viewGap      = 12.0
	legendHeight = 10.0
	rowHeight    = 5.5
)

// LoadSheet is everything printed on a load sheet. Report is optional.
type LoadSheet struct {
	Title     string
	Container model.Container
	Result    model.PlacementResult
	Metrics   model.LoadMetrics
	Report    *exceptions.Report
}

// ExportPDF writes a load sheet: a page with top and side views of the
// container colored by stop, followed by the piece list, axle loads and any
// warnings, violations or exceptions.
func ExportPDF(path string, sheet LoadSheet) error {
	if len(sheet.Result.Placed) == 0 && len(sheet.Result.Unplaced) == 0 {
		return fmt.Errorf("no cargo to export")
	}
	if sheet.Container.Length <= 0 || sheet.Container.Width <= 0 || sheet.Container.Height <= 0 {
		return fmt.Errorf("container has no dimensions")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderLayoutPage(pdf, sheet)

	pdf.AddPage()
	renderSummaryPage(pdf, sheet)

	return pdf.OutputFileAndClose(path)
}

func renderLayoutPage(pdf *fpdf.Fpdf, sheet LoadSheet) {
	c := sheet.Container
	title := sheet.Title
	if title == "" {
		title = "Load Plan"
	}
	if c.Label != "" {
		title = fmt.Sprintf("%s: %s", title, c.Label)
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	r := sheet.Result
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("%.0f x %.0f x %.0f | Pieces: %d of %d | Volume: %.1f%% | Weight: %.1f%% | Strategy: %s",
		c.Length, c.Width, c.Height, r.PlacedCount(), r.TotalPieces, r.VolumeUtilization, r.WeightUtilization, r.Strategy)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight - viewGap

	// Both views share the length scale so they line up.
	scale := math.Min(drawWidth/c.Length, drawHeight/(c.Width+c.Height))
	canvasW := c.Length * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2

	topY := drawAreaTop
	drawView(pdf, "Top view", sheet.Result.Placed, c.Length, c.Width, scale, offsetX, topY,
		func(p model.PlacedItem) (float64, float64, float64, float64) { return p.X, p.Y, p.Length, p.Width },
		func(a, b model.PlacedItem) bool { return a.Z < b.Z })

	sideY := topY + c.Width*scale + viewGap
	drawView(pdf, "Side view", sheet.Result.Placed, c.Length, c.Height, scale, offsetX, sideY,
		// Flip z so the floor is at the bottom of the drawing.
		func(p model.PlacedItem) (float64, float64, float64, float64) {
			return p.X, c.Height - p.Z - p.Height, p.Length, p.Height
		},
		func(a, b model.PlacedItem) bool { return a.Y > b.Y })

	drawCenterOfGravity(pdf, sheet.Metrics, c, scale, offsetX, topY, sideY)
	drawStopLegend(pdf, sheet.Result.Placed, sideY+c.Height*scale+4)
}

// drawView renders one orthographic projection. project maps an item to its
// rectangle in container units and less orders items back to front.
func drawView(pdf *fpdf.Fpdf, name string, placed []model.PlacedItem, w, h, scale, offsetX, offsetY float64,
	project func(model.PlacedItem) (x, y, w, h float64), less func(a, b model.PlacedItem) bool) {

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(80, 80, 80)
	pdf.SetXY(offsetX, offsetY-4.5)
	pdf.CellFormat(40, 4, name, "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, w*scale, h*scale, "FD")

	ordered := make([]model.PlacedItem, len(placed))
	copy(ordered, placed)
	sort.SliceStable(ordered, func(i, j int) bool { return less(ordered[i], ordered[j]) })

	for _, p := range ordered {
		x, y, pw, ph := project(p)
		px, py := offsetX+x*scale, offsetY+y*scale
		pw, ph = pw*scale, ph*scale

		col := colorForStop(p.StopSequence)
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.2)
		pdf.Rect(px, py, pw, ph, "FD")
		if p.Hazardous {
			drawHatchPattern(pdf, px, py, pw, ph)
		}

		if pw > 12 && ph > 5 {
			pdf.SetFont("Helvetica", "", labelFontSize(pw, ph))
			label := p.SKU
			if lw := pdf.GetStringWidth(label); lw < pw-1 {
				pdf.SetXY(px+(pw-lw)/2, py+ph/2-2)
				pdf.CellFormat(lw, 4, label, "", 0, "C", false, 0, "")
			}
		}
	}

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(80, 80, 80)
	dim := fmt.Sprintf("%.0f x %.0f", w, h)
	dw := pdf.GetStringWidth(dim)
	pdf.SetXY(offsetX+w*scale-dw, offsetY-4.5)
	pdf.CellFormat(dw, 4, dim, "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// drawHatchPattern draws diagonal lines inside a rectangle to mark hazardous cargo.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)

	spacing := 2.5
	for d := spacing; d < w+h; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)
		pdf.Line(x1, y1, x2, y2)
	}
}

// drawCenterOfGravity marks the load's center of gravity in both views.
func drawCenterOfGravity(pdf *fpdf.Fpdf, m model.LoadMetrics, c model.Container, scale, offsetX, topY, sideY float64) {
	if m.TotalWeight <= 0 {
		return
	}
	cog := m.CenterOfGravity
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.4)

	mark := func(x, y float64) {
		pdf.Line(x-2, y, x+2, y)
		pdf.Line(x, y-2, x, y+2)
		pdf.Circle(x, y, 1.2, "D")
	}
	mark(offsetX+cog.X*scale, topY+cog.Y*scale)
	mark(offsetX+cog.X*scale, sideY+(c.Height-cog.Z)*scale)
}

// drawStopLegend renders one swatch per delivery stop present in the load.
func drawStopLegend(pdf *fpdf.Fpdf, placed []model.PlacedItem, startY float64) {
	stops := map[int]int{}
	for _, p := range placed {
		stops[p.StopSequence]++
	}
	if len(stops) == 0 {
		return
	}
	keys := make([]int, 0, len(stops))
	for s := range stops {
		keys = append(keys, s)
	}
	sort.Ints(keys)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(20, 4, "Stops:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 22
	for _, s := range keys {
		col := colorForStop(s)
		label := fmt.Sprintf("Stop %d (%d pcs)", s, stops[s])
		lw := pdf.GetStringWidth(label) + 6
		if xPos+lw > pageWidth-marginRight {
			startY += 5
			xPos = marginLeft
		}
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(lw-4, 4, label, "", 0, "L", false, 0, "")
		xPos += lw + 2
	}
}

func renderSummaryPage(pdf *fpdf.Fpdf, sheet LoadSheet) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Load Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	r, m := sheet.Result, sheet.Metrics
	cog := m.CenterOfGravity

	y = section(pdf, y, "Overall Statistics")
	summaryItems := []struct {
		label string
		value string
	}{
		{"Pieces Placed", fmt.Sprintf("%d of %d", r.PlacedCount(), r.TotalPieces)},
		{"Volume Utilization", fmt.Sprintf("%.1f%%", r.VolumeUtilization)},
		{"Weight Utilization", fmt.Sprintf("%.1f%%", r.WeightUtilization)},
		{"Cargo / Gross Weight", fmt.Sprintf("%.0f / %.0f", m.TotalWeight, m.GrossWeight)},
		{"Center of Gravity", fmt.Sprintf("(%.1f, %.1f, %.1f)", cog.X, cog.Y, cog.Z)},
		{"Load Length", fmt.Sprintf("%.0f", m.LoadLength)},
		{"Stability Score", fmt.Sprintf("%.1f", m.StabilityScore)},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(60, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 6
	}

	if len(m.AxleLoads) > 0 {
		y = section(pdf, y+4, fmt.Sprintf("Axle Loads (%s)", m.Policy))
		rows := make([][]string, 0, len(m.AxleLoads))
		for _, a := range m.AxleLoads {
			rows = append(rows, []string{a.Name, fmt.Sprintf("%.0f", a.Load), fmt.Sprintf("%.0f", a.Limit), fmt.Sprintf("%.1f%%", a.Percent)})
		}
		y = table(pdf, y, []float64{50, 40, 40, 30}, []string{"Axle", "Load", "Limit", "Used"}, rows)
	}

	y = section(pdf, y+4, "Piece List")
	rows := make([][]string, 0, len(r.Placed))
	for _, p := range r.Placed {
		rows = append(rows, []string{
			p.PieceID, p.SKU,
			fmt.Sprintf("%.0f x %.0f x %.0f", p.Length, p.Width, p.Height),
			fmt.Sprintf("(%.0f, %.0f, %.0f)", p.X, p.Y, p.Z),
			string(p.Orientation),
			fmt.Sprintf("%d", p.Layer),
			fmt.Sprintf("%d", p.StopSequence),
			fmt.Sprintf("%.0f", p.Weight),
		})
	}
	y = table(pdf, y, []float64{40, 40, 40, 40, 30, 15, 15, 25},
		[]string{"Piece", "SKU", "L x W x H", "Position", "Orientation", "Layer", "Stop", "Weight"}, rows)

	var notes []note
	for _, id := range r.Unplaced {
		notes = append(notes, note{"UNPLACED", id})
	}
	for _, v := range r.Violations {
		notes = append(notes, note{string(v.Type), v.Message})
	}
	for _, w := range r.Warnings {
		notes = append(notes, note{string(w.Severity), w.Message})
	}
	if len(notes) > 0 {
		y = drawNotes(pdf, y+4, "Warnings and Violations", notes)
	}

	if rep := sheet.Report; rep != nil && len(rep.Exceptions) > 0 {
		notes = notes[:0]
		for _, e := range rep.Exceptions {
			notes = append(notes, note{strings.ToUpper(string(e.Severity)), e.Message + ". " + e.Suggestion})
		}
		for _, s := range rep.Suggestions {
			notes = append(notes, note{"SUGGEST", s})
		}
		for _, a := range rep.Alternatives {
			notes = append(notes, note{"EQUIPMENT", fmt.Sprintf("%s: %s", a.Type, a.Reason)})
		}
		drawNotes(pdf, y+4, "Exceptions", notes)
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by CargoFit - Load Planning", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

type note struct {
	tag  string
	text string
}

// ensureSpace starts a new page when fewer than need millimeters remain.
func ensureSpace(pdf *fpdf.Fpdf, y, need float64) float64 {
	if y+need <= pageHeight-marginBottom-6 {
		return y
	}
	pdf.AddPage()
	return marginTop
}

func section(pdf *fpdf.Fpdf, y float64, title string) float64 {
	y = ensureSpace(pdf, y, 16)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(150, 7, title, "", 0, "L", false, 0, "")
	return y + 8
}

// table draws a bordered table and repeats the header after page breaks.
func table(pdf *fpdf.Fpdf, y float64, widths []float64, headers []string, rows [][]string) float64 {
	header := func(y float64) float64 {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		x := marginLeft
		for i, h := range headers {
			pdf.SetXY(x, y)
			pdf.CellFormat(widths[i], rowHeight, h, "1", 0, "C", true, 0, "")
			x += widths[i]
		}
		return y + rowHeight
	}
	y = header(ensureSpace(pdf, y, 2*rowHeight))

	for i, row := range rows {
		if next := ensureSpace(pdf, y, rowHeight); next != y {
			y = header(next)
		}
		pdf.SetFont("Helvetica", "", 8)
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		x := marginLeft
		for j, cell := range row {
			pdf.SetXY(x, y)
			pdf.CellFormat(widths[j], rowHeight, cell, "1", 0, "C", true, 0, "")
			x += widths[j]
		}
		y += rowHeight
	}
	return y
}

func drawNotes(pdf *fpdf.Fpdf, y float64, title string, notes []note) float64 {
	y = section(pdf, y, title)
	for _, n := range notes {
		y = ensureSpace(pdf, y, 5)
		pdf.SetXY(marginLeft+5, y)
		pdf.SetFont("Helvetica", "B", 8)
		switch n.tag {
		case string(model.SeverityCritical), string(model.SeverityHigh), "UNPLACED":
			pdf.SetTextColor(200, 0, 0)
		default:
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.CellFormat(30, 5, n.tag, "", 0, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(pageWidth-marginLeft-marginRight-35, 5, n.text, "", 0, "L", false, 0, "")
		y += 5
	}
	return y
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 30:
		return 8
	case minDim > 12:
		return 7
	default:
		return 6
	}
}
