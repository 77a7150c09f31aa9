package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists attendance data in MongoDB.
type Repository struct {
	users    *mongo.Collection
	sessions *mongo.Collection
	records  *mongo.Collection
}

// NewRepository creates a repo over the given database.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		users:    db.Collection("users"),
		sessions: db.Collection("sessions"),
		records:  db.Collection("attendance_records"),
	}
}

// EnsureIndexes creates the unique indexes the engine relies on: usernames and
// fingerprints identify a user, and a student is recorded at most once per
// session window.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "fingerprintId", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}
	_, err = r.records.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "sessionId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// CreateUser inserts a new user, minting an id when absent.
func (r *Repository) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleStudent
	}
	if u.Role == RoleStudent && u.Attendance == "" {
		u.Attendance = StatusAbsent
	}
	_, err := r.users.InsertOne(ctx, u)
	return err
}

// FindUserByCredentials matches username, password and role exactly.
func (r *Repository) FindUserByCredentials(ctx context.Context, username, password, role string) (*User, error) {
	return r.findUser(ctx, bson.M{"username": username, "password": password, "role": role})
}

// FindUserByFingerprint resolves a fingerprint to a user of any role.
func (r *Repository) FindUserByFingerprint(ctx context.Context, fingerprintID string) (*User, error) {
	return r.findUser(ctx, bson.M{"fingerprintId": fingerprintID})
}

// FindUserByFingerprintRole resolves a fingerprint constrained to one role.
func (r *Repository) FindUserByFingerprintRole(ctx context.Context, fingerprintID, role string) (*User, error) {
	return r.findUser(ctx, bson.M{"fingerprintId": fingerprintID, "role": role})
}

// FindUserByID fetches a user by id.
func (r *Repository) FindUserByID(ctx context.Context, id string) (*User, error) {
	return r.findUser(ctx, bson.M{"_id": id})
}

// FindOpenSessionTeacher returns the teacher currently holding the open
// session, or nil when no session is open.
func (r *Repository) FindOpenSessionTeacher(ctx context.Context) (*User, error) {
	return r.findUser(ctx, bson.M{"role": RoleTeacher, "attendanceSessionOpen": true})
}

func (r *Repository) findUser(ctx context.Context, filter bson.M) (*User, error) {
	var u User
	if err := r.users.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// ListUsers returns the full directory.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	return r.listUsers(ctx, bson.M{}, nil)
}

// ListStudents returns every student sorted by username (roll number order).
func (r *Repository) ListStudents(ctx context.Context) ([]User, error) {
	sort := options.Find().SetSort(bson.D{{Key: "username", Value: 1}})
	return r.listUsers(ctx, bson.M{"role": RoleStudent}, sort)
}

// ListStudentsUpdatedSince returns students touched at or after the threshold,
// plus students that have never been updated.
func (r *Repository) ListStudentsUpdatedSince(ctx context.Context, since time.Time) ([]User, error) {
	filter := bson.M{
		"role": RoleStudent,
		"$or": bson.A{
			bson.M{"lastUpdated": bson.M{"$gte": since}},
			bson.M{"lastUpdated": bson.M{"$exists": false}},
		},
	}
	return r.listUsers(ctx, filter, nil)
}

func (r *Repository) listUsers(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]User, error) {
	var cur *mongo.Cursor
	var err error
	if opts != nil {
		cur, err = r.users.Find(ctx, filter, opts)
	} else {
		cur, err = r.users.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SaveTeacherSession persists a teacher's session fields. Cleared fields are
// unset so the document looks like a never-opened teacher again.
func (r *Repository) SaveTeacherSession(ctx context.Context, u *User) error {
	set := bson.M{"attendanceSessionOpen": u.SessionOpen}
	unset := bson.M{}
	if u.SessionStart != nil {
		set["sessionStart"] = *u.SessionStart
	} else {
		unset["sessionStart"] = ""
	}
	if u.ActiveSessionID != "" {
		set["activeSessionId"] = u.ActiveSessionID
	} else {
		unset["activeSessionId"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	_, err := r.users.UpdateOne(ctx, bson.M{"_id": u.ID}, update)
	return err
}

// ResetAllStudents marks every student absent (session open reset).
func (r *Repository) ResetAllStudents(ctx context.Context) error {
	_, err := r.users.UpdateMany(ctx,
		bson.M{"role": RoleStudent},
		bson.M{"$set": bson.M{"attendance": StatusAbsent}})
	return err
}

// ResetPresentStudents marks present students absent (post-report reset).
func (r *Repository) ResetPresentStudents(ctx context.Context) error {
	_, err := r.users.UpdateMany(ctx,
		bson.M{"role": RoleStudent, "attendance": StatusPresent},
		bson.M{"$set": bson.M{"attendance": StatusAbsent}})
	return err
}

// MarkStudentPresent sets one student present with the given timestamp.
func (r *Repository) MarkStudentPresent(ctx context.Context, id string, when time.Time) error {
	_, err := r.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"attendance": StatusPresent, "lastUpdated": when}})
	return err
}

// ResetStudent sets one student absent with the given timestamp.
func (r *Repository) ResetStudent(ctx context.Context, id string, when time.Time) error {
	_, err := r.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"attendance": StatusAbsent, "lastUpdated": when}})
	return err
}

// InsertSession writes a completed session row.
func (r *Repository) InsertSession(ctx context.Context, s Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.sessions.InsertOne(ctx, s)
	return err
}

// CountTeacherSessions counts one teacher's sessions ended at or after the threshold.
func (r *Repository) CountTeacherSessions(ctx context.Context, teacherID string, endedSince time.Time) (int64, error) {
	return r.sessions.CountDocuments(ctx, bson.M{
		"teacherId":  teacherID,
		"sessionEnd": bson.M{"$gte": endedSince},
	})
}

// CountSessions counts sessions ended at or after the threshold across all teachers.
func (r *Repository) CountSessions(ctx context.Context, endedSince time.Time) (int64, error) {
	return r.sessions.CountDocuments(ctx, bson.M{"sessionEnd": bson.M{"$gte": endedSince}})
}

// InsertAttendanceRecord writes a record unless the student already has one for
// the session; reports whether a row was inserted.
func (r *Repository) InsertAttendanceRecord(ctx context.Context, rec AttendanceRecord) (bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := r.records.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountAttendedRecords counts a student's attended records across all time.
func (r *Repository) CountAttendedRecords(ctx context.Context, studentID string) (int64, error) {
	return r.records.CountDocuments(ctx, bson.M{"studentId": studentID, "attended": true})
}
