package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// QuizPaper describes a printable assessment sheet for one course week.
type QuizPaper struct {
	CourseName string
	CourseCode string
	Week       int
	MCQs       []PaperMCQ
	Questions  []PaperQuestion
}

// PaperMCQ is a multiple-choice item on the printed paper. The correct
// answer is deliberately omitted from the rendered output.
type PaperMCQ struct {
	Question string
	Options  []string
}

// PaperQuestion is an open-format item with its point value.
type PaperQuestion struct {
	Question string
	Type     string
	Points   int
}

// PDFExporter renders quiz papers into PDF bytes.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderQuizPaper creates a printable quiz document for the given paper.
func (e *PDFExporter) RenderQuizPaper(paper QuizPaper) ([]byte, error) {
	if len(paper.MCQs) == 0 && len(paper.Questions) == 0 {
		return nil, fmt.Errorf("quiz paper requires at least one question")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, fmt.Sprintf("%s (%s)", paper.CourseName, paper.CourseCode), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Week %d Assessment", paper.Week), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if len(paper.MCQs) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Section A: Multiple Choice", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for i, mcq := range paper.MCQs {
			pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", i+1, mcq.Question), "", "", false)
			for j, option := range mcq.Options {
				pdf.MultiCell(0, 6, fmt.Sprintf("   %c) %s", 'A'+rune(j), option), "", "", false)
			}
			pdf.Ln(2)
		}
		pdf.Ln(3)
	}

	if len(paper.Questions) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Section B: Written Questions", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for i, q := range paper.Questions {
			pdf.MultiCell(0, 6, fmt.Sprintf("%d. [%s, %d pts] %s", i+1, q.Type, q.Points, q.Question), "", "", false)
			pdf.Ln(2)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render quiz paper pdf: %w", err)
	}
	return buf.Bytes(), nil
}
