package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"classattend/internal/metrics"
)

// Store is the persistence surface the engine runs on.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	FindUserByCredentials(ctx context.Context, username, password, role string) (*User, error)
	FindUserByFingerprint(ctx context.Context, fingerprintID string) (*User, error)
	FindUserByFingerprintRole(ctx context.Context, fingerprintID, role string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindOpenSessionTeacher(ctx context.Context) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListStudents(ctx context.Context) ([]User, error)
	ListStudentsUpdatedSince(ctx context.Context, since time.Time) ([]User, error)
	SaveTeacherSession(ctx context.Context, u *User) error
	ResetAllStudents(ctx context.Context) error
	ResetPresentStudents(ctx context.Context) error
	MarkStudentPresent(ctx context.Context, id string, when time.Time) error
	ResetStudent(ctx context.Context, id string, when time.Time) error
	InsertSession(ctx context.Context, s Session) error
	CountTeacherSessions(ctx context.Context, teacherID string, endedSince time.Time) (int64, error)
	CountSessions(ctx context.Context, endedSince time.Time) (int64, error)
	InsertAttendanceRecord(ctx context.Context, rec AttendanceRecord) (bool, error)
	CountAttendedRecords(ctx context.Context, studentID string) (int64, error)
}

// ScanOutcome says what a scan did.
type ScanOutcome int

const (
	ScanSessionOpened ScanOutcome = iota
	ScanSessionClosed
	ScanStudentMarked
)

// ScanResult reports a successful scan. Subject is set when a session opened;
// Student is set when a student was marked present.
type ScanResult struct {
	Outcome ScanOutcome
	Subject string
	Student *User
}

// Service is the attendance session engine. Scans are serialized behind mu so
// the single-open-session invariant is check-and-set rather than read-then-write;
// the Force* override methods deliberately skip both the lock and the checks.
type Service struct {
	store   Store
	metrics metrics.Recorder

	mu  sync.Mutex
	now func() time.Time
}

// NewService creates the engine.
func NewService(store Store, rec metrics.Recorder) *Service {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{store: store, metrics: rec, now: time.Now}
}

// Scan runs the state machine for one fingerprint read. A teacher scan opens a
// session when none is open, closes it when the same teacher already holds it,
// and fails with ErrRivalSession when a different teacher does. A student scan
// marks the student present in the open session or fails with ErrNoOpenSession.
func (s *Service) Scan(ctx context.Context, fingerprintID string) (*ScanResult, error) {
	user, err := s.store.FindUserByFingerprint(ctx, fingerprintID)
	if err != nil {
		s.metrics.RecordScan(metrics.OutcomeError)
		return nil, err
	}
	if user == nil {
		s.metrics.RecordScan(metrics.OutcomeRejected)
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var res *ScanResult
	switch user.Role {
	case RoleTeacher:
		res, err = s.teacherScan(ctx, user)
	case RoleStudent:
		res, err = s.studentScan(ctx, user)
	default:
		err = ErrNotFound
	}
	if err != nil {
		switch err {
		case ErrRivalSession, ErrNoOpenSession, ErrNotFound:
			s.metrics.RecordScan(metrics.OutcomeRejected)
		default:
			s.metrics.RecordScan(metrics.OutcomeError)
		}
		return nil, err
	}
	switch res.Outcome {
	case ScanSessionOpened:
		s.metrics.RecordScan(metrics.OutcomeSessionOpened)
	case ScanSessionClosed:
		s.metrics.RecordScan(metrics.OutcomeSessionClosed)
	case ScanStudentMarked:
		s.metrics.RecordScan(metrics.OutcomeStudentMarked)
		s.metrics.RecordAttendanceMark()
	}
	return res, nil
}

func (s *Service) teacherScan(ctx context.Context, teacher *User) (*ScanResult, error) {
	active, err := s.store.FindOpenSessionTeacher(ctx)
	if err != nil {
		return nil, err
	}
	if active != nil && active.ID != teacher.ID {
		return nil, ErrRivalSession
	}
	// The stored flag wins over the scanned copy; an out-of-band override may
	// have flipped it since the fingerprint lookup.
	if active != nil {
		teacher = active
	}

	if !teacher.SessionOpen {
		if err := s.store.ResetAllStudents(ctx); err != nil {
			return nil, err
		}
		start := s.now()
		teacher.SessionOpen = true
		teacher.SessionStart = &start
		teacher.ActiveSessionID = uuid.NewString()
		if err := s.store.SaveTeacherSession(ctx, teacher); err != nil {
			return nil, err
		}
		return &ScanResult{Outcome: ScanSessionOpened, Subject: teacher.Subject}, nil
	}

	end := s.now()
	start := end
	if teacher.SessionStart != nil {
		start = *teacher.SessionStart
	}
	sess := Session{
		ID:           teacher.ActiveSessionID,
		TeacherID:    teacher.ID,
		SessionStart: start,
		SessionEnd:   end,
	}
	if err := s.store.InsertSession(ctx, sess); err != nil {
		return nil, err
	}
	teacher.SessionOpen = false
	teacher.SessionStart = nil
	teacher.ActiveSessionID = ""
	if err := s.store.SaveTeacherSession(ctx, teacher); err != nil {
		return nil, err
	}
	return &ScanResult{Outcome: ScanSessionClosed}, nil
}

func (s *Service) studentScan(ctx context.Context, student *User) (*ScanResult, error) {
	active, err := s.store.FindOpenSessionTeacher(ctx)
	if err != nil {
		return nil, err
	}
	if active == nil || active.ActiveSessionID == "" {
		return nil, ErrNoOpenSession
	}

	now := s.now()
	if err := s.store.MarkStudentPresent(ctx, student.ID, now); err != nil {
		return nil, err
	}
	rec := AttendanceRecord{
		StudentID: student.ID,
		SessionID: active.ActiveSessionID,
		Attended:  true,
	}
	if _, err := s.store.InsertAttendanceRecord(ctx, rec); err != nil {
		return nil, err
	}
	student.Attendance = StatusPresent
	student.LastUpdated = &now
	return &ScanResult{Outcome: ScanStudentMarked, Student: student}, nil
}

// Signup creates a user. Role defaults and attendance defaults are applied by
// the store.
func (s *Service) Signup(ctx context.Context, u *User) error {
	return s.store.CreateUser(ctx, u)
}

// Login matches plaintext credentials and returns the user.
func (s *Service) Login(ctx context.Context, username, password, role string) (*User, error) {
	user, err := s.store.FindUserByCredentials(ctx, username, password, role)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrBadCredentials
	}
	return user, nil
}

// SessionCount counts one teacher's completed sessions inside the period.
func (s *Service) SessionCount(ctx context.Context, teacherID string, period Period) (int64, error) {
	return s.store.CountTeacherSessions(ctx, teacherID, period.Threshold(s.now()))
}

// StudentSnapshot lists students updated inside the period, plus students that
// were never updated (absent by default, still eligible).
func (s *Service) StudentSnapshot(ctx context.Context, period Period) ([]User, error) {
	return s.store.ListStudentsUpdatedSince(ctx, period.Threshold(s.now()))
}

// StudentSummary computes the lecture totals for one student. TotalLectures is
// period-bound but system-wide; AttendedLectures is per-student but unbounded.
func (s *Service) StudentSummary(ctx context.Context, studentID string, period Period) (Summary, error) {
	total, err := s.store.CountSessions(ctx, period.Threshold(s.now()))
	if err != nil {
		return Summary{}, err
	}
	attended, err := s.store.CountAttendedRecords(ctx, studentID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{TotalLectures: total, AttendedLectures: attended}, nil
}

// ListUsers dumps the directory.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

// LookupByFingerprint resolves a fingerprint, optionally constrained to a role.
func (s *Service) LookupByFingerprint(ctx context.Context, fingerprintID, role string) (*User, error) {
	var user *User
	var err error
	if role == "" {
		user, err = s.store.FindUserByFingerprint(ctx, fingerprintID)
	} else {
		user, err = s.store.FindUserByFingerprintRole(ctx, fingerprintID, role)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// UserByID fetches a user, optionally constrained to a role.
func (s *Service) UserByID(ctx context.Context, id, role string) (*User, error) {
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil || (role != "" && user.Role != role) {
		return nil, ErrNotFound
	}
	return user, nil
}

// TeacherRoster returns a teacher and the full student roster in roll-number
// order, for report rendering.
func (s *Service) TeacherRoster(ctx context.Context, teacherID string) (*User, []User, error) {
	teacher, err := s.UserByID(ctx, teacherID, RoleTeacher)
	if err != nil {
		return nil, nil, err
	}
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, nil, err
	}
	return teacher, students, nil
}

// ForceSessionState is the hardware override path: it overwrites the teacher's
// session flag without the engine lock or the rival-session check, and writes
// no Session row. active stamps a fresh start time and handle; inactive clears
// both.
func (s *Service) ForceSessionState(ctx context.Context, fingerprintID string, active bool) (*User, error) {
	teacher, err := s.store.FindUserByFingerprintRole(ctx, fingerprintID, RoleTeacher)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return nil, ErrNotFound
	}
	teacher.SessionOpen = active
	if active {
		start := s.now()
		teacher.SessionStart = &start
		teacher.ActiveSessionID = uuid.NewString()
	} else {
		teacher.SessionStart = nil
		teacher.ActiveSessionID = ""
	}
	if err := s.store.SaveTeacherSession(ctx, teacher); err != nil {
		return nil, err
	}
	return teacher, nil
}

// ForceMarkPresent is the hardware override path for students: it marks one
// student present without requiring an open session and writes no record.
func (s *Service) ForceMarkPresent(ctx context.Context, fingerprintID string) (*User, error) {
	student, err := s.store.FindUserByFingerprintRole(ctx, fingerprintID, RoleStudent)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrNotFound
	}
	now := s.now()
	if err := s.store.MarkStudentPresent(ctx, student.ID, now); err != nil {
		return nil, err
	}
	student.Attendance = StatusPresent
	student.LastUpdated = &now
	return student, nil
}

// ResetRoster flips every present student back to absent. Runs as a background
// job after a teacher report download.
func (s *Service) ResetRoster(ctx context.Context) error {
	if err := s.store.ResetPresentStudents(ctx); err != nil {
		s.metrics.RecordResetFailure()
		return err
	}
	s.metrics.RecordRosterReset()
	return nil
}

// ResetStudent flips one student back to absent after a student report download.
func (s *Service) ResetStudent(ctx context.Context, studentID string) error {
	if err := s.store.ResetStudent(ctx, studentID, s.now()); err != nil {
		s.metrics.RecordResetFailure()
		return err
	}
	return nil
}
