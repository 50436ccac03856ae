// Package label renders printable QR label sheets for physical tool tagging.
package label

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// ToolLabel is one label on the sheet: the QR encodes the inventory code so
// the counter can pull the tool up by scanning it.
type ToolLabel struct {
	ToolID        int64  `json:"toolId"`
	Name          string `json:"name"`
	InventoryCode string `json:"inventoryCode"`
}

// SheetConfig holds the A4 grid layout for a label sheet.
type SheetConfig struct {
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
}

// DefaultSheetConfig is a 3x8 grid matching common adhesive label paper.
func DefaultSheetConfig() SheetConfig {
	return SheetConfig{
		Cols:       3,
		Rows:       8,
		MarginTop:  10,
		MarginLeft: 7,
		GapX:       3,
		GapY:       3,
	}
}

// GenerateSheet creates an A4 PDF with one QR label per tool.
func GenerateSheet(cfg SheetConfig, labels []ToolLabel) ([]byte, error) {
	if cfg.Cols <= 0 || cfg.Rows <= 0 {
		return nil, fmt.Errorf("invalid sheet grid %dx%d", cfg.Cols, cfg.Rows)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no labels requested")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)

	// A4 dimensions
	pageWidth, pageHeight := 210.0, 297.0

	totalGapX := float64(cfg.Cols-1) * cfg.GapX
	totalGapY := float64(cfg.Rows-1) * cfg.GapY

	availW := pageWidth - (cfg.MarginLeft * 2)
	availH := pageHeight - (cfg.MarginTop * 2)

	labelW := (availW - totalGapX) / float64(cfg.Cols)
	labelH := (availH - totalGapY) / float64(cfg.Rows)

	labelsPerPage := cfg.Cols * cfg.Rows

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		indexOnPage := i % labelsPerPage
		col := indexOnPage % cfg.Cols
		row := indexOnPage / cfg.Cols

		x := cfg.MarginLeft + float64(col)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(row)*(labelH+cfg.GapY)

		code := label.InventoryCode
		if code == "" {
			code = fmt.Sprintf("T%010d", label.ToolID)
		}

		qrPng, err := qrcode.Encode(code, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("failed to encode QR for tool %d: %w", label.ToolID, err)
		}

		imgName := fmt.Sprintf("qr_%d", i)
		imgOptions := gofpdf.ImageOptions{
			ImageType: "PNG",
			ReadDpi:   true,
		}
		_ = pdf.RegisterImageOptionsReader(imgName, imgOptions, bytes.NewReader(qrPng))

		// QR centered, 70% of label height, shifted up for the caption.
		qrSize := labelH * 0.7
		if qrSize > labelW {
			qrSize = labelW * 0.9
		}
		qrX := x + (labelW-qrSize)/2
		qrY := y + (labelH-qrSize)/2 - 2

		pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, imgOptions, 0, "")

		pdf.SetXY(x, y+labelH-6)
		pdf.SetFontSize(8)
		pdf.CellFormat(labelW, 5, code, "", 0, "C", false, 0, "")

		pdf.SetXY(x, y+1)
		pdf.SetFontSize(6)
		pdf.CellFormat(labelW, 3, truncate(label.Name, 32), "", 0, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
