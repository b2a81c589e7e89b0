package httpapi

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rollbook/internal/account"
	"rollbook/internal/attendance"
	"rollbook/internal/auth"
	"rollbook/internal/roster"
)

// Server holds the services behind the /api routes.
type Server struct {
	accounts   *account.Service
	roster     *roster.Service
	attendance *attendance.Service
	signingKey string
	issuer     string
	now        func() time.Time
}

// NewServer wires the API surface.
func NewServer(accounts *account.Service, rosterSvc *roster.Service, attendanceSvc *attendance.Service, signingKey, issuer string) *Server {
	return &Server{
		accounts:   accounts,
		roster:     rosterSvc,
		attendance: attendanceSvc,
		signingKey: signingKey,
		issuer:     issuer,
		now:        time.Now,
	}
}

// Register mounts all routes on the engine. Routes under the bearer group
// reject requests without a valid token before reaching a handler.
func (s *Server) Register(r *gin.Engine) {
	api := r.Group("/api")
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)

	authed := api.Group("", auth.RequireAuth(s.signingKey, s.issuer))
	authed.POST("/teacher/class", s.handleUpdateClass)
	authed.POST("/students", s.handleAddStudent)
	authed.GET("/students", s.handleListStudents)
	authed.PUT("/students/:id", s.handleUpdateStudent)
	authed.DELETE("/students/:id", s.handleDeleteStudent)
	authed.POST("/attendance", s.handleMarkAttendance)
	authed.POST("/attendance/batch", s.handleMarkBatch)
	authed.GET("/attendance/:date", s.handleAttendanceForDate)
	authed.GET("/all-attendance/:date", s.handleAllAttendanceForDate)
}

func (s *Server) handleRegister(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := s.accounts.Register(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists."})
			return
		}
		log.Printf("register failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register teacher."})
		return
	}
	token, _, err := auth.IssueDaily(u.ID, u.Role, s.issuer, s.signingKey, s.now())
	if err != nil {
		log.Printf("token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register teacher."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "userId": u.ID})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false})
		return
	}
	u, err := s.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			loginFailures.Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"success": false})
			return
		}
		log.Printf("login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in."})
		return
	}
	token, _, err := auth.IssueDaily(u.ID, u.Role, s.issuer, s.signingKey, s.now())
	if err != nil {
		log.Printf("token issue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in."})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     token,
		"userId":    u.ID,
		"className": u.ClassName,
		"role":      u.Role,
	})
}

func (s *Server) handleUpdateClass(c *gin.Context) {
	var req struct {
		ClassName string `json:"className"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := s.accounts.UpdateClassName(c.Request.Context(), auth.UserID(c), req.ClassName)
	if err != nil {
		log.Printf("class name update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update class name."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "className": u.ClassName})
}

func (s *Server) handleAddStudent(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
		Roll string `json:"roll" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := s.roster.Add(c.Request.Context(), auth.UserID(c), req.Name, req.Roll)
	if err != nil {
		if errors.Is(err, roster.ErrDuplicateRoll) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Roll number must be unique for this teacher."})
			return
		}
		log.Printf("add student failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register student."})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) handleListStudents(c *gin.Context) {
	students, err := s.roster.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		log.Printf("list students failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load students."})
		return
	}
	if students == nil {
		students = []roster.Student{}
	}
	c.JSON(http.StatusOK, students)
}

func (s *Server) handleUpdateStudent(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
		Roll string `json:"roll" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := s.roster.Update(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Name, req.Roll)
	if err != nil {
		switch {
		case errors.Is(err, roster.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found or not authorized."})
		case errors.Is(err, roster.ErrDuplicateRoll):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Roll number must be unique for this teacher."})
		default:
			log.Printf("update student failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update student."})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "student": st})
}

func (s *Server) handleDeleteStudent(c *gin.Context) {
	err := s.roster.Delete(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found or not authorized."})
			return
		}
		log.Printf("delete student failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete student."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleMarkAttendance(c *gin.Context) {
	var req struct {
		StudentID string `json:"studentId" binding:"required"`
		Date      string `json:"date" binding:"required"`
		Status    string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := s.attendance.Mark(c.Request.Context(), auth.UserID(c), req.StudentID, req.Date, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid attendance status."})
		case errors.Is(err, attendance.ErrInvalidDate):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date."})
		default:
			log.Printf("mark attendance failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark attendance."})
		}
		return
	}
	marksTotal.WithLabelValues(rec.Status).Inc()
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleMarkBatch(c *gin.Context) {
	var req struct {
		Date  string                 `json:"date" binding:"required"`
		Marks []attendance.BatchMark `json:"marks" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	results := s.attendance.MarkBatch(c.Request.Context(), auth.UserID(c), req.Date, req.Marks)
	marked, failed := 0, 0
	for _, res := range results {
		if res.OK {
			marked++
		} else {
			failed++
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "marked": marked, "failed": failed})
}

func (s *Server) handleAttendanceForDate(c *gin.Context) {
	records, err := s.attendance.ForDate(c.Request.Context(), auth.UserID(c), c.Param("date"))
	if err != nil {
		if errors.Is(err, attendance.ErrInvalidDate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date."})
			return
		}
		log.Printf("attendance fetch failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load attendance."})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleAllAttendanceForDate(c *gin.Context) {
	sheets, err := s.attendance.SheetsForDate(c.Request.Context(), auth.Role(c), c.Param("date"))
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied."})
		case errors.Is(err, attendance.ErrInvalidDate):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date."})
		default:
			log.Printf("all-attendance fetch failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load attendance."})
		}
		return
	}
	c.JSON(http.StatusOK, sheets)
}
