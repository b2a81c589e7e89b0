package attendance

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// UpsertRecord inserts or overwrites the record for (student_id, date). The
// unique constraint makes concurrent marks for the same pair serialize in
// the database; the last write wins and the row keeps its original id.
func (r *Repository) UpsertRecord(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance (id, student_id, teacher_id, date, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id, date) DO UPDATE SET
			status = EXCLUDED.status,
			teacher_id = EXCLUDED.teacher_id
		RETURNING id, student_id, teacher_id, date, status
	`, rec.ID, rec.StudentID, rec.TeacherID, rec.Date, rec.Status)
	var out Record
	if err := row.Scan(&out.ID, &out.StudentID, &out.TeacherID, &out.Date, &out.Status); err != nil {
		return Record{}, err
	}
	return out, nil
}

// RecordsByTeacherDate lists one teacher's records for a date.
func (r *Repository) RecordsByTeacherDate(ctx context.Context, teacherID, date string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, teacher_id, date, status
		FROM attendance
		WHERE teacher_id = $1 AND date = $2
	`, teacherID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.TeacherID, &rec.Date, &rec.Status); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
