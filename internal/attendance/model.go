package attendance

import "time"

// Roles a User can hold.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Attendance status values for students.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// User is a teacher or student document. Teacher-only fields (Subject, session
// state) and student-only fields (Attendance, LastUpdated) are omitted from the
// document when unset so `$exists` queries keep working.
type User struct {
	ID            string `bson:"_id" json:"id"`
	Username      string `bson:"username" json:"username"`
	Name          string `bson:"name" json:"name"`
	Password      string `bson:"password" json:"-"`
	Role          string `bson:"role" json:"role"`
	FingerprintID string `bson:"fingerprintId" json:"fingerprintId"`

	// Teacher fields.
	Subject         string     `bson:"subject,omitempty" json:"subject,omitempty"`
	SessionOpen     bool       `bson:"attendanceSessionOpen" json:"attendanceSessionOpen"`
	SessionStart    *time.Time `bson:"sessionStart,omitempty" json:"sessionStart,omitempty"`
	ActiveSessionID string     `bson:"activeSessionId,omitempty" json:"activeSessionId,omitempty"`

	// Student fields.
	Attendance  string     `bson:"attendance,omitempty" json:"attendance,omitempty"`
	LastUpdated *time.Time `bson:"lastUpdated,omitempty" json:"lastUpdated,omitempty"`
}

// Session is the historical record of one completed teacher session. Its ID is
// the handle minted when the session opened, so attendance records written
// during the open window join to it directly.
type Session struct {
	ID           string    `bson:"_id" json:"id"`
	TeacherID    string    `bson:"teacherId" json:"teacherId"`
	SessionStart time.Time `bson:"sessionStart" json:"sessionStart"`
	SessionEnd   time.Time `bson:"sessionEnd" json:"sessionEnd"`
}

// AttendanceRecord marks one student present during one session window.
type AttendanceRecord struct {
	ID        string `bson:"_id" json:"id"`
	StudentID string `bson:"studentId" json:"studentId"`
	SessionID string `bson:"sessionId" json:"sessionId"`
	Attended  bool   `bson:"attended" json:"attended"`
}

// Summary is the per-student attendance view. TotalLectures counts sessions
// across all teachers within the period; AttendedLectures counts the student's
// records across all time. The asymmetry matches the behavior the dashboards
// were built against.
type Summary struct {
	TotalLectures    int64 `json:"totalLectures"`
	AttendedLectures int64 `json:"attendedLectures"`
}
