package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rollbook/internal/account"
	"rollbook/internal/auth"
	"rollbook/internal/roster"
)

// Record is one student's status for one calendar day. Exactly one record
// exists per (student, date); marking again overwrites, never duplicates.
// The teacher id is denormalized on so teacher-scoped reads skip a join.
type Record struct {
	ID        string `json:"id"`
	StudentID string `json:"studentId"`
	TeacherID string `json:"teacherId"`
	Date      string `json:"date"`
	Status    string `json:"status"`
}

// Statuses a record may carry.
const (
	StatusPresent         = "present"
	StatusSick            = "sick"
	StatusNotifiedAbsence = "notified_absence"
	StatusAbsent          = "absent"
	StatusLate            = "late"
	StatusTransferred     = "transferred"
)

var validStatuses = map[string]bool{
	StatusPresent:         true,
	StatusSick:            true,
	StatusNotifiedAbsence: true,
	StatusAbsent:          true,
	StatusLate:            true,
	StatusTransferred:     true,
}

// ValidStatus reports whether s is one of the enumerated statuses.
func ValidStatus(s string) bool {
	return validStatuses[s]
}

var (
	// ErrInvalidStatus means the status is outside the enumerated set.
	ErrInvalidStatus = errors.New("invalid attendance status")
	// ErrInvalidDate means the date is not a YYYY-MM-DD day or lies in the future.
	ErrInvalidDate = errors.New("invalid date")
	// ErrForbidden means the caller's role may not read cross-teacher sheets.
	ErrForbidden = errors.New("access denied")
)

// Sheet is one teacher's printable attendance for a date. An empty Students
// list means that teacher has not taken attendance for the date at all,
// which is distinct from everyone being marked absent.
type Sheet struct {
	TeacherEmail string       `json:"teacherEmail"`
	ClassName    string       `json:"className"`
	Date         string       `json:"date"`
	Students     []SheetEntry `json:"students"`
}

// SheetEntry is one roster line on a sheet.
type SheetEntry struct {
	Name   string `json:"name"`
	Roll   string `json:"roll"`
	Status string `json:"status"`
}

// BatchMark is one entry in a batch marking request.
type BatchMark struct {
	StudentID string `json:"studentId"`
	Status    string `json:"status"`
}

// BatchResult reports the outcome of one upsert in a batch. Batches are not
// transactions: each mark stands alone and failed ones can be re-issued.
type BatchResult struct {
	StudentID string `json:"studentId"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

// Store persists attendance records.
type Store interface {
	UpsertRecord(ctx context.Context, rec Record) (Record, error)
	RecordsByTeacherDate(ctx context.Context, teacherID, date string) ([]Record, error)
}

// TeacherDirectory lists teacher accounts for sheet aggregation.
type TeacherDirectory interface {
	Teachers(ctx context.Context) ([]account.User, error)
}

// RosterSource lists a teacher's students for sheet aggregation.
type RosterSource interface {
	StudentsByTeacher(ctx context.Context, teacherID string) ([]roster.Student, error)
}

// SheetCache is a best-effort cache for aggregated sheets.
type SheetCache interface {
	GetString(ctx context.Context, key string) (string, bool)
	SetString(ctx context.Context, key, val string, ttl time.Duration)
	Invalidate(ctx context.Context, keys ...string)
}

// Service coordinates marking and aggregation.
type Service struct {
	store    Store
	teachers TeacherDirectory
	roster   RosterSource
	cache    SheetCache
	cacheTTL time.Duration
	now      func() time.Time
}

// NewService creates a service. cache may be nil to disable sheet caching.
func NewService(store Store, teachers TeacherDirectory, rosterSrc RosterSource, cache SheetCache, cacheTTL time.Duration) *Service {
	return &Service{
		store:    store,
		teachers: teachers,
		roster:   rosterSrc,
		cache:    cache,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Mark upserts the status for (student, date). Marking the same pair again
// replaces the previous status; there is never more than one record.
func (s *Service) Mark(ctx context.Context, teacherID, studentID, date, status string) (Record, error) {
	if !ValidStatus(status) {
		return Record{}, ErrInvalidStatus
	}
	if !ValidDate(date) {
		return Record{}, ErrInvalidDate
	}
	if IsFuture(date, Today(s.now())) {
		return Record{}, ErrInvalidDate
	}
	if studentID == "" {
		return Record{}, errors.New("student id required")
	}
	rec, err := s.store.UpsertRecord(ctx, Record{
		StudentID: studentID,
		TeacherID: teacherID,
		Date:      date,
		Status:    status,
	})
	if err != nil {
		return Record{}, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, sheetCacheKey(date))
	}
	return rec, nil
}

// MarkBatch fires one independent upsert per entry and reports each outcome.
// There is no rollback; retrying a failed entry is safe because marking is
// idempotent per (student, date).
func (s *Service) MarkBatch(ctx context.Context, teacherID, date string, marks []BatchMark) []BatchResult {
	results := make([]BatchResult, 0, len(marks))
	for _, m := range marks {
		res := BatchResult{StudentID: m.StudentID, OK: true}
		if _, err := s.Mark(ctx, teacherID, m.StudentID, date, m.Status); err != nil {
			res.OK = false
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// ForDate returns the caller's records for a date. A day with nothing marked
// yields an empty sequence.
func (s *Service) ForDate(ctx context.Context, teacherID, date string) ([]Record, error) {
	if !ValidDate(date) {
		return nil, ErrInvalidDate
	}
	recs, err := s.store.RecordsByTeacherDate(ctx, teacherID, date)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}

// SheetsForDate aggregates every teacher's attendance for a date. Teachers
// may not call this; every other role may. A teacher with zero records for
// the date gets a sheet with an empty students list, signalling "not taken
// yet". Once any record exists, every student on that roster appears and the
// unmarked ones default to absent.
func (s *Service) SheetsForDate(ctx context.Context, callerRole, date string) ([]Sheet, error) {
	if !auth.CanViewAllAttendance(callerRole) {
		return nil, ErrForbidden
	}
	if !ValidDate(date) {
		return nil, ErrInvalidDate
	}

	key := sheetCacheKey(date)
	if s.cache != nil {
		if raw, ok := s.cache.GetString(ctx, key); ok {
			var sheets []Sheet
			if err := json.Unmarshal([]byte(raw), &sheets); err == nil {
				return sheets, nil
			}
		}
	}

	teachers, err := s.teachers.Teachers(ctx)
	if err != nil {
		return nil, err
	}
	sheets := make([]Sheet, 0, len(teachers))
	for _, t := range teachers {
		records, err := s.store.RecordsByTeacherDate(ctx, t.ID, date)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			sheets = append(sheets, Sheet{
				TeacherEmail: t.Email,
				ClassName:    t.ClassName,
				Date:         date,
				Students:     []SheetEntry{},
			})
			continue
		}
		students, err := s.roster.StudentsByTeacher(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, buildSheet(t, date, students, records))
	}

	if s.cache != nil {
		if raw, err := json.Marshal(sheets); err == nil {
			s.cache.SetString(ctx, key, string(raw), s.cacheTTL)
		}
	}
	return sheets, nil
}

// buildSheet lays every roster student onto the sheet, defaulting to absent
// where no record exists. Records for students since deleted from the roster
// are simply not shown.
func buildSheet(t account.User, date string, students []roster.Student, records []Record) Sheet {
	byStudent := make(map[string]string, len(records))
	for _, rec := range records {
		byStudent[rec.StudentID] = rec.Status
	}
	entries := make([]SheetEntry, 0, len(students))
	for _, st := range students {
		status, ok := byStudent[st.ID]
		if !ok {
			status = StatusAbsent
		}
		entries = append(entries, SheetEntry{Name: st.Name, Roll: st.Roll, Status: status})
	}
	return Sheet{
		TeacherEmail: t.Email,
		ClassName:    t.ClassName,
		Date:         date,
		Students:     entries,
	}
}

func sheetCacheKey(date string) string {
	return "rollbook:sheets:" + date
}
