package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/CargoFit/internal/model"
)

// LabelInfo holds the data encoded into each piece label's QR code.
type LabelInfo struct {
	PieceID     string            `json:"piece"`
	SKU         string            `json:"sku"`
	Container   string            `json:"container,omitempty"`
	Stop        int               `json:"stop"`
	Length      float64           `json:"length"`
	Width       float64           `json:"width"`
	Height      float64           `json:"height"`
	Weight      float64           `json:"weight"`
	Orientation model.Orientation `json:"orientation"`
	Layer       int               `json:"layer"`
	X           float64           `json:"x"`
	Y           float64           `json:"y"`
	Z           float64           `json:"z"`
	Fragile     bool              `json:"fragile,omitempty"`
	Hazardous   bool              `json:"hazardous,omitempty"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelPageWidth  = 215.9 // US Letter width in mm
	labelPageHeight = 279.4 // US Letter height in mm
	labelMarginTop  = 12.7  // mm
	labelMarginLeft = 4.8   // mm
	labelWidth      = 66.7  // mm per label
	labelHeight     = 25.4  // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportLabels generates a PDF of QR-coded labels, one per placed piece, in
// loading order. Each label carries the SKU, stop, dimensions and position
// in the container, with the same data JSON-encoded in the QR code.
func ExportLabels(path string, container model.Container, result model.PlacementResult) error {
	labels := CollectLabelInfos(container, result)
	if len(labels) == 0 {
		return fmt.Errorf("no pieces placed to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.PieceID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	// Piece IDs are unique within a result, so they name the images.
	imgName := "qr_" + info.PieceID
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	// SKU and stop (bold, larger)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, truncate(pdf, fmt.Sprintf("%s  STOP %d", info.SKU, info.Stop), textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	dims := fmt.Sprintf("%.0f x %.0f x %.0f  %.0f wt", info.Length, info.Width, info.Height, info.Weight)
	pdf.CellFormat(textW, 3.5, truncate(pdf, dims, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pos := fmt.Sprintf("%s @ (%.0f, %.0f, %.0f) L%d", info.PieceID, info.X, info.Y, info.Z, info.Layer)
	pdf.CellFormat(textW, 3, truncate(pdf, pos, textW), "", 1, "L", false, 0, "")

	var handling string
	switch {
	case info.Hazardous && info.Fragile:
		handling = "HAZMAT / FRAGILE"
	case info.Hazardous:
		handling = "HAZMAT"
	case info.Fragile:
		handling = "FRAGILE"
	}
	if handling != "" {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "B", 7)
		pdf.SetTextColor(200, 0, 0)
		pdf.CellFormat(textW, 3, handling, "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// CollectLabelInfos extracts label information from a placement result in
// loading order.
func CollectLabelInfos(container model.Container, result model.PlacementResult) []LabelInfo {
	var labels []LabelInfo
	for _, p := range result.Placed {
		labels = append(labels, LabelInfo{
			PieceID:     p.PieceID,
			SKU:         p.SKU,
			Container:   container.ID,
			Stop:        p.StopSequence,
			Length:      p.Length,
			Width:       p.Width,
			Height:      p.Height,
			Weight:      p.Weight,
			Orientation: p.Orientation,
			Layer:       p.Layer,
			X:           p.X,
			Y:           p.Y,
			Z:           p.Z,
			Fragile:     p.Fragile,
			Hazardous:   p.Hazardous,
		})
	}
	return labels
}
