package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"rollbook/internal/account"
	"rollbook/internal/attendance"
	"rollbook/internal/auth"
	"rollbook/internal/roster"
)

// In-memory stores standing in for Postgres, mirroring its constraints.

type fakeUsers struct {
	byEmail map[string]account.User
}

func (f *fakeUsers) CreateUser(_ context.Context, u account.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return account.ErrDuplicateEmail
	}
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUsers) UserByEmail(_ context.Context, email string) (account.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return account.User{}, account.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdateClassName(_ context.Context, userID, className string) (account.User, error) {
	for email, u := range f.byEmail {
		if u.ID == userID {
			u.ClassName = className
			f.byEmail[email] = u
			return u, nil
		}
	}
	return account.User{}, account.ErrNotFound
}

func (f *fakeUsers) Teachers(context.Context) ([]account.User, error) {
	var out []account.User
	for _, u := range f.byEmail {
		if u.Role == auth.RoleTeacher {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeStudents struct {
	byID map[string]roster.Student
}

func (f *fakeStudents) CreateStudent(_ context.Context, s roster.Student) error {
	for _, existing := range f.byID {
		if existing.TeacherID == s.TeacherID && existing.Roll == s.Roll {
			return roster.ErrDuplicateRoll
		}
	}
	f.byID[s.ID] = s
	return nil
}

func (f *fakeStudents) StudentsByTeacher(_ context.Context, teacherID string) ([]roster.Student, error) {
	var out []roster.Student
	for _, s := range f.byID {
		if s.TeacherID == teacherID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStudents) UpdateStudent(_ context.Context, teacherID, studentID, name, roll string) (roster.Student, error) {
	s, ok := f.byID[studentID]
	if !ok || s.TeacherID != teacherID {
		return roster.Student{}, roster.ErrNotFound
	}
	s.Name, s.Roll = name, roll
	f.byID[studentID] = s
	return s, nil
}

func (f *fakeStudents) DeleteStudent(_ context.Context, teacherID, studentID string) error {
	s, ok := f.byID[studentID]
	if !ok || s.TeacherID != teacherID {
		return roster.ErrNotFound
	}
	delete(f.byID, studentID)
	return nil
}

type fakeRecords struct {
	byKey map[string]attendance.Record
}

func (f *fakeRecords) UpsertRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	key := rec.StudentID + "|" + rec.Date
	if old, ok := f.byKey[key]; ok {
		rec.ID = old.ID
	}
	f.byKey[key] = rec
	return rec, nil
}

func (f *fakeRecords) RecordsByTeacherDate(_ context.Context, teacherID, date string) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, rec := range f.byKey {
		if rec.TeacherID == teacherID && rec.Date == date {
			out = append(out, rec)
		}
	}
	return out, nil
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	users := &fakeUsers{byEmail: make(map[string]account.User)}
	students := &fakeStudents{byID: make(map[string]roster.Student)}
	records := &fakeRecords{byKey: make(map[string]attendance.Record)}

	accounts := account.NewService(users)
	rosterSvc := roster.NewService(students)
	attendanceSvc := attendance.NewService(records, users, students, nil, time.Minute)

	srv := NewServer(accounts, rosterSvc, attendanceSvc, "test-secret", "rollbook-test")
	r := gin.New()
	srv.Register(r)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func registerUser(t *testing.T, r *gin.Engine, email, role string) (token, userID string) {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/register", "", gin.H{
		"email": email, "password": "hunter2", "role": role,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register %s: status %d body %s", email, w.Code, w.Body.String())
	}
	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		UserID  string `json:"userId"`
	}
	decode(t, w, &resp)
	if !resp.Success || resp.Token == "" || resp.UserID == "" {
		t.Fatalf("unexpected register response: %s", w.Body.String())
	}
	return resp.Token, resp.UserID
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	r := newTestRouter()
	registerUser(t, r, "a@enkoeducation.com", "")

	w := do(t, r, http.MethodPost, "/api/register", "", gin.H{
		"email": "a@enkoeducation.com", "password": "other",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", w.Code)
	}

	w = do(t, r, http.MethodPost, "/api/login", "", gin.H{
		"email": "a@enkoeducation.com", "password": "hunter2",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	var login struct {
		Success   bool   `json:"success"`
		Token     string `json:"token"`
		ClassName string `json:"className"`
		Role      string `json:"role"`
	}
	decode(t, w, &login)
	if !login.Success || login.Role != auth.RoleTeacher {
		t.Fatalf("unexpected login response: %s", w.Body.String())
	}

	w = do(t, r, http.MethodPost, "/api/login", "", gin.H{
		"email": "a@enkoeducation.com", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", w.Code)
	}
}

func TestAuthRejections(t *testing.T) {
	r := newTestRouter()

	if w := do(t, r, http.MethodGet, "/api/students", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/api/students", "not-a-jwt", nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for garbage token, got %d", w.Code)
	}

	expired, _, err := auth.IssueDaily("u1", auth.RoleTeacher, "rollbook-test", "test-secret",
		time.Now().AddDate(0, 0, -2))
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if w := do(t, r, http.MethodGet, "/api/students", expired, nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for expired token, got %d", w.Code)
	}
}

func TestAttendanceFlow(t *testing.T) {
	r := newTestRouter()
	token, _ := registerUser(t, r, "a@enkoeducation.com", "")

	w := do(t, r, http.MethodPost, "/api/students", token, gin.H{"name": "Amara", "roll": "12"})
	if w.Code != http.StatusOK {
		t.Fatalf("add student failed: %d %s", w.Code, w.Body.String())
	}
	var st roster.Student
	decode(t, w, &st)

	w = do(t, r, http.MethodPost, "/api/attendance", token, gin.H{
		"studentId": st.ID, "date": "2024-03-01", "status": "present",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("mark failed: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/attendance/2024-03-01", token, nil)
	var records []attendance.Record
	decode(t, w, &records)
	if len(records) != 1 || records[0].Status != "present" || records[0].StudentID != st.ID {
		t.Fatalf("expected one present record, got %+v", records)
	}

	// marking again replaces, never duplicates
	w = do(t, r, http.MethodPost, "/api/attendance", token, gin.H{
		"studentId": st.ID, "date": "2024-03-01", "status": "absent",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("remark failed: %d %s", w.Code, w.Body.String())
	}
	w = do(t, r, http.MethodGet, "/api/attendance/2024-03-01", token, nil)
	records = nil
	decode(t, w, &records)
	if len(records) != 1 || records[0].Status != "absent" {
		t.Fatalf("expected single overwritten record, got %+v", records)
	}

	w = do(t, r, http.MethodPost, "/api/attendance", token, gin.H{
		"studentId": st.ID, "date": "2024-03-01", "status": "on_the_moon",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid status, got %d", w.Code)
	}
}

func TestBatchMarking(t *testing.T) {
	r := newTestRouter()
	token, _ := registerUser(t, r, "a@enkoeducation.com", "")

	w := do(t, r, http.MethodPost, "/api/students", token, gin.H{"name": "Amara", "roll": "12"})
	var s1 roster.Student
	decode(t, w, &s1)
	w = do(t, r, http.MethodPost, "/api/students", token, gin.H{"name": "Binta", "roll": "13"})
	var s2 roster.Student
	decode(t, w, &s2)

	w = do(t, r, http.MethodPost, "/api/attendance/batch", token, gin.H{
		"date": "2024-03-01",
		"marks": []gin.H{
			{"studentId": s1.ID, "status": "present"},
			{"studentId": s2.ID, "status": "daydreaming"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("batch failed: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Results []attendance.BatchResult `json:"results"`
		Marked  int                      `json:"marked"`
		Failed  int                      `json:"failed"`
	}
	decode(t, w, &resp)
	if resp.Marked != 1 || resp.Failed != 1 {
		t.Fatalf("expected 1 marked and 1 failed, got %+v", resp)
	}
}

func TestRosterOwnershipOverHTTP(t *testing.T) {
	r := newTestRouter()
	t1, _ := registerUser(t, r, "t1@enkoeducation.com", "")
	t2, _ := registerUser(t, r, "t2@enkoeducation.com", "")

	w := do(t, r, http.MethodPost, "/api/students", t1, gin.H{"name": "Amara", "roll": "5"})
	var st roster.Student
	decode(t, w, &st)

	// same roll under another teacher is allowed
	if w := do(t, r, http.MethodPost, "/api/students", t2, gin.H{"name": "Chidi", "roll": "5"}); w.Code != http.StatusOK {
		t.Fatalf("roll should repeat across teachers: %d %s", w.Code, w.Body.String())
	}
	// duplicate roll under the same teacher is not
	if w := do(t, r, http.MethodPost, "/api/students", t1, gin.H{"name": "Binta", "roll": "5"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate roll, got %d", w.Code)
	}

	// another teacher cannot see, update, or delete the student
	w = do(t, r, http.MethodGet, "/api/students", t2, nil)
	var others []roster.Student
	decode(t, w, &others)
	for _, s := range others {
		if s.ID == st.ID {
			t.Fatalf("t2 can see t1's student")
		}
	}
	if w := do(t, r, http.MethodPut, "/api/students/"+st.ID, t2, gin.H{"name": "X", "roll": "9"}); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 updating another teacher's student, got %d", w.Code)
	}
	if w := do(t, r, http.MethodDelete, "/api/students/"+st.ID, t2, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting another teacher's student, got %d", w.Code)
	}
	if w := do(t, r, http.MethodDelete, "/api/students/"+st.ID, t1, nil); w.Code != http.StatusOK {
		t.Fatalf("owner delete failed: %d", w.Code)
	}
}

func TestAllAttendanceRoleGate(t *testing.T) {
	r := newTestRouter()
	teacher, _ := registerUser(t, r, "t1@enkoeducation.com", "")
	admin, _ := registerUser(t, r, "admin@enkoeducation.com", "admin")

	w := do(t, r, http.MethodPost, "/api/students", teacher, gin.H{"name": "Amara", "roll": "12"})
	var st roster.Student
	decode(t, w, &st)

	if w := do(t, r, http.MethodGet, "/api/all-attendance/2024-03-01", teacher, nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for teacher, got %d", w.Code)
	}

	// before any record exists the sheet is an empty list
	w = do(t, r, http.MethodGet, "/api/all-attendance/2024-03-01", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin fetch failed: %d %s", w.Code, w.Body.String())
	}
	var sheets []attendance.Sheet
	decode(t, w, &sheets)
	if len(sheets) != 1 {
		t.Fatalf("expected one teacher sheet, got %d", len(sheets))
	}
	if len(sheets[0].Students) != 0 {
		t.Fatalf("expected empty students list before attendance starts, got %+v", sheets[0].Students)
	}

	// once one record exists the full roster shows up
	do(t, r, http.MethodPost, "/api/attendance", teacher, gin.H{
		"studentId": st.ID, "date": "2024-03-01", "status": "present",
	})
	w = do(t, r, http.MethodGet, "/api/all-attendance/2024-03-01", admin, nil)
	sheets = nil
	decode(t, w, &sheets)
	if len(sheets) != 1 || len(sheets[0].Students) != 1 {
		t.Fatalf("expected populated sheet, got %+v", sheets)
	}
	if sheets[0].Students[0].Status != "present" {
		t.Fatalf("expected present, got %s", sheets[0].Students[0].Status)
	}
}

func TestUpdateClassName(t *testing.T) {
	r := newTestRouter()
	token, _ := registerUser(t, r, "t1@enkoeducation.com", "")

	w := do(t, r, http.MethodPost, "/api/teacher/class", token, gin.H{"className": "Grade 5 Blue"})
	if w.Code != http.StatusOK {
		t.Fatalf("class update failed: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success   bool   `json:"success"`
		ClassName string `json:"className"`
	}
	decode(t, w, &resp)
	if !resp.Success || resp.ClassName != "Grade 5 Blue" {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}

	w = do(t, r, http.MethodPost, "/api/login", "", gin.H{
		"email": "t1@enkoeducation.com", "password": "hunter2",
	})
	var login struct {
		ClassName string `json:"className"`
	}
	decode(t, w, &login)
	if login.ClassName != "Grade 5 Blue" {
		t.Fatalf("class name not persisted: %s", w.Body.String())
	}
}
