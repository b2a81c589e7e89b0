package roster

import (
	"context"
	"database/sql"
	"errors"

	"rollbook/internal/store"
)

// Repository persists students in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateStudent inserts a student. The (roll, teacher_id) unique constraint
// surfaces as ErrDuplicateRoll.
func (r *Repository) CreateStudent(ctx context.Context, s Student) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (id, name, roll, teacher_id)
		VALUES ($1, $2, $3, $4)
	`, s.ID, s.Name, s.Roll, s.TeacherID)
	if store.IsUniqueViolation(err) {
		return ErrDuplicateRoll
	}
	return err
}

// StudentsByTeacher lists a teacher's roster ordered by roll.
func (r *Repository) StudentsByTeacher(ctx context.Context, teacherID string) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, roll, teacher_id, created_at
		FROM students WHERE teacher_id = $1
		ORDER BY roll
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Roll, &s.TeacherID, &s.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// UpdateStudent writes name and roll on a student the teacher owns. The
// WHERE clause carries the teacher id, so a student owned by someone else
// scans as no rows and maps to ErrNotFound.
func (r *Repository) UpdateStudent(ctx context.Context, teacherID, studentID, name, roll string) (Student, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE students SET name = $3, roll = $4
		WHERE id = $1 AND teacher_id = $2
		RETURNING id, name, roll, teacher_id, created_at
	`, studentID, teacherID, name, roll)
	var s Student
	err := row.Scan(&s.ID, &s.Name, &s.Roll, &s.TeacherID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, ErrNotFound
	}
	if store.IsUniqueViolation(err) {
		return Student{}, ErrDuplicateRoll
	}
	if err != nil {
		return Student{}, err
	}
	return s, nil
}

// DeleteStudent removes a student the teacher owns. Attendance rows are not
// cascaded.
func (r *Repository) DeleteStudent(ctx context.Context, teacherID, studentID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM students WHERE id = $1 AND teacher_id = $2
	`, studentID, teacherID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
