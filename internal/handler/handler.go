package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/config"
	"classattend/internal/queue"
	"classattend/internal/report"
	"classattend/internal/sensor"
)

// Handler exposes the attendance engine over HTTP.
type Handler struct {
	svc    *attendance.Service
	sensor *sensor.Client
	jobs   queue.Queue
	cfg    config.App

	// Process-local enrollment counter; resets on restart on purpose, the
	// sensor flow re-enrolls from scratch after a redeploy.
	nextFingerprintID atomic.Int64
}

// New creates a handler.
func New(svc *attendance.Service, sensorClient *sensor.Client, jobs queue.Queue, cfg config.App) *Handler {
	return &Handler{svc: svc, sensor: sensorClient, jobs: jobs, cfg: cfg}
}

// Register mounts every route on the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.POST("/scan", h.Scan)
	r.GET("/teacher-sessions/:teacherId", h.TeacherSessions)
	r.GET("/student-attendance", h.StudentSnapshot)
	r.GET("/student-attendance/:studentId", h.StudentSummary)
	r.POST("/enroll", h.Enroll)
	r.POST("/proxy/enroll", h.ProxyEnroll)
	r.GET("/download-pdf/:teacherId", h.TeacherPDF)
	r.GET("/download-pdf/student/:studentId", h.StudentPDF)
	r.GET("/users", h.ListUsers)
	r.GET("/get-teacher-subject", h.TeacherSubject)
	r.GET("/get-student-details", h.StudentDetails)
	r.GET("/get-user", h.UserByFingerprint)
	r.GET("/update-session", h.ForceSession)
	r.GET("/update-attendance", h.ForceAttendance)
	r.GET("/me", auth.BearerAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer), h.Me)
}

// ---------- Accounts ----------

type signupRequest struct {
	Username      string `json:"username"`
	Name          string `json:"name"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	FingerprintID string `json:"fingerprintId"`
	Subject       string `json:"subject"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	switch req.Role {
	case attendance.RoleStudent:
		if req.Username == "" || req.Name == "" || req.Password == "" || req.FingerprintID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields for student."})
			return
		}
	case attendance.RoleTeacher:
		if req.Username == "" || req.Name == "" || req.Password == "" || req.FingerprintID == "" || req.Subject == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields for teacher."})
			return
		}
	}

	u := attendance.User{
		Username:      req.Username,
		Name:          req.Name,
		Password:      req.Password,
		Role:          req.Role,
		FingerprintID: req.FingerprintID,
		Subject:       req.Subject,
	}
	if err := h.svc.Signup(c.Request.Context(), &u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	user, err := h.svc.Login(c.Request.Context(), req.Username, req.Password, req.Role)
	if errors.Is(err, attendance.ErrBadCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	tokens, err := auth.Issue(user.ID, user.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"user":         user,
		"token":        tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

// Me returns the user behind the bearer token.
func (h *Handler) Me(c *gin.Context) {
	claimsAny, _ := c.Get("claims")
	claims, _ := claimsAny.(auth.Claims)
	user, err := h.svc.UserByID(c.Request.Context(), claims.Subject, "")
	if errors.Is(err, attendance.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ---------- Scan ----------

type scanRequest struct {
	FingerprintID string `json:"fingerprintId"`
}

func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FingerprintID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing fingerprintId"})
		return
	}

	res, err := h.svc.Scan(c.Request.Context(), req.FingerprintID)
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "No match found"})
		case errors.Is(err, attendance.ErrRivalSession):
			c.JSON(http.StatusForbidden, gin.H{"message": "Another teacher's session is active. You cannot start or end a session."})
		case errors.Is(err, attendance.ErrNoOpenSession):
			c.JSON(http.StatusForbidden, gin.H{"message": "Attendance session not open. Please wait for a teacher to start a session."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		}
		return
	}

	switch res.Outcome {
	case attendance.ScanSessionOpened:
		c.JSON(http.StatusOK, gin.H{
			"message": "Attendance session started. Subject: " + res.Subject,
			"subject": res.Subject,
		})
	case attendance.ScanSessionClosed:
		c.JSON(http.StatusOK, gin.H{"message": "Attendance session ended."})
	case attendance.ScanStudentMarked:
		c.JSON(http.StatusOK, gin.H{
			"message": "Attendance updated for student. Roll No: " + res.Student.Username,
			"user":    res.Student,
		})
	}
}

// ---------- Reports & queries ----------

func (h *Handler) TeacherSessions(c *gin.Context) {
	period := attendance.ParsePeriod(c.Query("period"))
	count, err := h.svc.SessionCount(c.Request.Context(), c.Param("teacherId"), period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"totalLectures": count})
}

func (h *Handler) StudentSnapshot(c *gin.Context) {
	period := attendance.ParsePeriod(c.Query("period"))
	students, err := h.svc.StudentSnapshot(c.Request.Context(), period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	if students == nil {
		students = []attendance.User{}
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) StudentSummary(c *gin.Context) {
	period := attendance.ParsePeriod(c.Query("period"))
	summary, err := h.svc.StudentSummary(c.Request.Context(), c.Param("studentId"), period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	if users == nil {
		users = []attendance.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// ---------- Enrollment ----------

func (h *Handler) Enroll(c *gin.Context) {
	id := h.nextFingerprintID.Add(1)
	log.Printf("enrolled fingerprint with id %d", id)
	c.JSON(http.StatusOK, gin.H{"success": true, "fingerprintId": id})
}

func (h *Handler) ProxyEnroll(c *gin.Context) {
	reply, err := h.sensor.Enroll(c.Request.Context(), c.Query("role"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Data(reply.Status, "application/json", reply.Body)
}

// ---------- PDF downloads ----------

func (h *Handler) TeacherPDF(c *gin.Context) {
	period := attendance.ParsePeriod(c.Query("period"))
	teacher, students, err := h.svc.TeacherRoster(c.Request.Context(), c.Param("teacherId"))
	if errors.Is(err, attendance.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Teacher not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	pdfBytes, err := report.Teacher(teacher, students, period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	h.servePDF(c, report.Filename(teacher.Name), pdfBytes)
	h.enqueueReset(queue.Message{Type: queue.TypeRosterReset})
}

func (h *Handler) StudentPDF(c *gin.Context) {
	period := attendance.ParsePeriod(c.Query("period"))
	student, err := h.svc.UserByID(c.Request.Context(), c.Param("studentId"), attendance.RoleStudent)
	if errors.Is(err, attendance.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Student not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	pdfBytes, err := report.Student(student, period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	h.servePDF(c, report.Filename(student.Name), pdfBytes)
	h.enqueueReset(queue.Message{Type: queue.TypeStudentReset, Body: []byte(student.ID)})
}

func (h *Handler) servePDF(c *gin.Context, filename string, pdfBytes []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+url.PathEscape(filename)+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// enqueueReset publishes a reset job after the response is served. Failures
// are logged, never surfaced: the download already succeeded.
func (h *Handler) enqueueReset(msg queue.Message) {
	if err := h.jobs.Publish(context.Background(), msg); err != nil {
		log.Printf("reset job publish failed: %v", err)
	}
}

// ---------- Fingerprint lookups ----------

func (h *Handler) TeacherSubject(c *gin.Context) {
	teacher, err := h.svc.LookupByFingerprint(c.Request.Context(), c.Query("fingerprintId"), attendance.RoleTeacher)
	if errors.Is(err, attendance.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Teacher not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subject": teacher.Subject})
}

func (h *Handler) StudentDetails(c *gin.Context) {
	student, err := h.svc.LookupByFingerprint(c.Request.Context(), c.Query("fingerprintId"), attendance.RoleStudent)
	if errors.Is(err, attendance.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Student not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": student.Username})
}

func (h *Handler) UserByFingerprint(c *gin.Context) {
	user, err := h.svc.LookupByFingerprint(c.Request.Context(), c.Query("fingerprintId"), "")
	if errors.Is(err, attendance.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": user.Role, "username": user.Username})
}

// ---------- Hardware overrides ----------

// ForceSession and ForceAttendance are the sensor integration path: they write
// session and attendance state directly, skipping the engine's checks.

func (h *Handler) ForceSession(c *gin.Context) {
	active := c.Query("active") == "1"
	teacher, err := h.svc.ForceSessionState(c.Request.Context(), c.Query("fingerprintId"), active)
	if errors.Is(err, attendance.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Teacher not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session updated", "active": teacher.SessionOpen})
}

func (h *Handler) ForceAttendance(c *gin.Context) {
	student, err := h.svc.ForceMarkPresent(c.Request.Context(), c.Query("fingerprintId"))
	if errors.Is(err, attendance.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Student not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendance updated", "username": student.Username})
}
