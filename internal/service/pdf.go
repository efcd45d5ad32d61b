package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"dictophone-api/internal/model"
)

// PDFService renders transcript segments into a paginated document.
type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// GenerateTranscriptionPDF builds the export document: title, recording
// date, then each segment as a [mm:ss] stamp followed by wrapped text.
// Segments are rendered in the order given; callers pass them sorted by
// start time.
func (s *PDFService) GenerateTranscriptionPDF(title string, datetime time.Time, segments []model.TranscriptionSegment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, tr(title), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 6, datetime.Format("02.01.2006 15:04"))
	pdf.Ln(12)

	for _, segment := range segments {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(0, 5, fmt.Sprintf("[%s]", formatTimestamp(segment.Start)))
		pdf.Ln(6)

		pdf.SetFont("Helvetica", "", 10)
		pdf.SetX(pdf.GetX() + 4)
		pdf.MultiCell(0, 5, tr(segment.Text), "", "L", false)
		pdf.Ln(3)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatTimestamp(seconds float32) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
