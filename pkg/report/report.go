// Package report renders teaching practice assessment letters as PDF
package report

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/divan/num2words"
	"github.com/go-pdf/fpdf"
)

// Aspect one scored rubric line
type Aspect struct {
	Name    string
	Maximum float64
	Score   *float64
}

// Section one rubric section with its assessor comments
type Section struct {
	Number   int
	Name     string
	Maximum  float64
	Score    float64
	Comments string
	Aspects  []Aspect
}

// Letter everything printed on a report
type Letter struct {
	Institution    string
	Title          string
	StudentName    string
	StudentIndex   string
	Course         string
	AssessmentType string
	Assessor       string
	School         string
	Grade          string
	LearningArea   string
	Zone           string
	AssessedAt     string
	Location       string
	LateSubmission bool
	LateReason     string
	Sections       []Section
	Total          float64
	Comments       string
}

// Filename is a download name for the letter; slashes in the index become dashes
func (l *Letter) Filename() string {
	return fmt.Sprintf("%s_%s.pdf", strings.ReplaceAll(l.StudentIndex, "/", "-"), l.AssessmentType)
}

const (
	pageWidth = 190.0
	lineH     = 6.0
)

// Render draws the letter and returns the PDF bytes
func Render(l *Letter) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(l.Title, true)
	pdf.SetAuthor(l.Institution, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// ── heading ──
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(pageWidth, 8, tr(l.Institution), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(pageWidth, 7, tr(l.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(pageWidth, 6, tr(l.Course+" - "+l.AssessmentType), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── particulars ──
	details := [][2]string{
		{"Student", l.StudentName},
		{"Index", l.StudentIndex},
		{"Assessor", l.Assessor},
		{"School", l.School},
		{"Grade", l.Grade},
		{"Learning area", l.LearningArea},
		{"Zone", l.Zone},
		{"Assessed on", l.AssessedAt},
		{"Location", l.Location},
	}
	for _, d := range details {
		if d[1] == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, lineH, d[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(pageWidth-40, lineH, tr(d[1]), "", 1, "L", false, 0, "")
	}
	if l.LateSubmission {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(pageWidth, 5, tr("Late submission: "+l.LateReason), "", "L", false)
	}
	pdf.Ln(3)

	// ── sections ──
	for _, s := range l.Sections {
		pdf.SetFillColor(230, 230, 230)
		pdf.SetFont("Helvetica", "B", 10)
		title := fmt.Sprintf("%d. %s", s.Number, s.Name)
		pdf.CellFormat(pageWidth-40, 7, tr(title), "1", 0, "L", true, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%s / %s", num(s.Score), num(s.Maximum)), "1", 1, "C", true, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		for _, a := range s.Aspects {
			score := "-"
			if a.Score != nil {
				score = num(*a.Score)
			}
			pdf.CellFormat(pageWidth-40, lineH, tr(a.Name), "LR", 0, "L", false, 0, "")
			pdf.CellFormat(40, lineH, fmt.Sprintf("%s / %s", score, num(a.Maximum)), "LR", 1, "C", false, 0, "")
		}
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(pageWidth, 5, tr("Comments: "+s.Comments), "1", "L", false)
		pdf.Ln(2)
	}

	// ── totals ──
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(pageWidth, 7, fmt.Sprintf("Total score: %s (%s)", num(l.Total), Words(l.Total)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(pageWidth, 6, "General comments and suggestions:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(pageWidth, 5, tr(l.Comments), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Words spells out a score, e.g. 72.5 -> "seventy-two point five"
func Words(v float64) string {
	v = math.Round(v*100) / 100
	whole := int(v)
	out := num2words.Convert(whole)
	frac := int(math.Round((v - float64(whole)) * 100))
	if frac == 0 {
		return out
	}
	if frac%10 == 0 {
		return out + " point " + num2words.Convert(frac/10)
	}
	return out + " point " + digitWords(frac)
}

func digitWords(frac int) string {
	tens, ones := frac/10, frac%10
	return num2words.Convert(tens) + " " + num2words.Convert(ones)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
