package report

import (
	"bytes"
	"testing"

	"classattend/internal/attendance"
)

func TestTeacherReportIsValidPDF(t *testing.T) {
	teacher := &attendance.User{Name: "Alice", Subject: "Physics", Role: attendance.RoleTeacher}
	students := []attendance.User{
		{Name: "Bob", Username: "S1", Attendance: attendance.StatusPresent},
		{Name: "Carol", Username: "S2"},
	}

	out, err := Teacher(teacher, students, attendance.PeriodWeekly)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Error("output is not a PDF document")
	}
	if len(out) < 500 {
		t.Errorf("suspiciously small document: %d bytes", len(out))
	}
}

func TestTeacherReportEmptyRoster(t *testing.T) {
	teacher := &attendance.User{Name: "Alice", Subject: "Physics", Role: attendance.RoleTeacher}

	out, err := Teacher(teacher, nil, attendance.PeriodDaily)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Error("output is not a PDF document")
	}
}

func TestStudentReportIsValidPDF(t *testing.T) {
	student := &attendance.User{Name: "Bob", Username: "S1", Role: attendance.RoleStudent}

	out, err := Student(student, attendance.PeriodMonthly)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Error("output is not a PDF document")
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("Alice"); got != "Alice_attendance.pdf" {
		t.Errorf("Filename = %q", got)
	}
}
