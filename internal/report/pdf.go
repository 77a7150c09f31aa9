// Package report renders attendance reports as PDF documents.
package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"classattend/internal/attendance"
)

// Teacher renders the teacher report: a header block followed by one status
// line per student in roll-number order.
func Teacher(teacher *attendance.User, students []attendance.User, period attendance.Period) ([]byte, error) {
	pdf := newDoc()

	heading(pdf, 25, "Attendance Report")
	heading(pdf, 18, "Teacher: "+teacher.Name)
	heading(pdf, 16, "Subject: "+teacher.Subject)
	heading(pdf, 16, "Period: "+period.Title())
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "BU", 20)
	pdf.CellFormat(0, 10, "Student Attendance:", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 14)
	for _, s := range students {
		status := s.Attendance
		if status == "" {
			status = attendance.StatusAbsent
		}
		line := fmt.Sprintf("Name: %s | Roll No: %s | Status: %s", s.Name, s.Username, status)
		pdf.CellFormat(0, 8, line, "", 1, "L", false, 0, "")
	}

	return output(pdf)
}

// Student renders the individual student report header.
func Student(student *attendance.User, period attendance.Period) ([]byte, error) {
	pdf := newDoc()

	heading(pdf, 25, "Attendance Report")
	heading(pdf, 18, "Student: "+student.Name)
	heading(pdf, 16, "Period: "+period.Title())

	return output(pdf)
}

// Filename builds the download name for a report.
func Filename(name string) string {
	return name + "_attendance.pdf"
}

func newDoc() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	return pdf
}

func heading(pdf *fpdf.Fpdf, size float64, text string) {
	pdf.SetFont("Helvetica", "", size)
	pdf.CellFormat(0, size/2, text, "", 1, "C", false, 0, "")
	pdf.Ln(2)
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
