package roster

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Student belongs to exactly one teacher. The (roll, teacher) pair is unique;
// the same roll may exist under different teachers.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Roll      string    `json:"roll"`
	TeacherID string    `json:"teacherId"`
	CreatedAt time.Time `json:"-"`
}

var (
	// ErrDuplicateRoll means the teacher already has a student with that roll.
	ErrDuplicateRoll = errors.New("roll number must be unique for this teacher")
	// ErrNotFound covers both a missing student and one owned by another
	// teacher, so callers cannot probe other rosters.
	ErrNotFound = errors.New("student not found or not authorized")
)

// Store persists students.
type Store interface {
	CreateStudent(ctx context.Context, s Student) error
	StudentsByTeacher(ctx context.Context, teacherID string) ([]Student, error)
	UpdateStudent(ctx context.Context, teacherID, studentID, name, roll string) (Student, error)
	DeleteStudent(ctx context.Context, teacherID, studentID string) error
}

// Service manages a teacher's roster.
type Service struct {
	store Store
}

// NewService creates a service backed by a student store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Add registers a student under the calling teacher.
func (s *Service) Add(ctx context.Context, teacherID, name, roll string) (Student, error) {
	if name == "" || roll == "" {
		return Student{}, errors.New("name and roll required")
	}
	st := Student{
		ID:        uuid.NewString(),
		Name:      name,
		Roll:      roll,
		TeacherID: teacherID,
	}
	if err := s.store.CreateStudent(ctx, st); err != nil {
		return Student{}, err
	}
	return st, nil
}

// List returns the caller's students only.
func (s *Service) List(ctx context.Context, teacherID string) ([]Student, error) {
	return s.store.StudentsByTeacher(ctx, teacherID)
}

// Update renames or re-rolls a student the caller owns.
func (s *Service) Update(ctx context.Context, teacherID, studentID, name, roll string) (Student, error) {
	if name == "" || roll == "" {
		return Student{}, errors.New("name and roll required")
	}
	return s.store.UpdateStudent(ctx, teacherID, studentID, name, roll)
}

// Delete removes a student the caller owns. Historical attendance rows are
// left in place and keep referencing the deleted id.
func (s *Service) Delete(ctx context.Context, teacherID, studentID string) error {
	return s.store.DeleteStudent(ctx, teacherID, studentID)
}
