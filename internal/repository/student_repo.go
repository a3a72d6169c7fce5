package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"psychinsights-backend/internal/models"
)

type StudentRepo struct {
	pool *pgxpool.Pool
}

func NewStudentRepo(pool *pgxpool.Pool) *StudentRepo {
	return &StudentRepo{pool: pool}
}

const studentColumns = `id, student_numeric_id, class_id, device_id, raw_notes,
	ai_personality_tag, ai_full_portrait, ai_dos_donts, created_at`

func (r *StudentRepo) Create(ctx context.Context, s *models.Student) error {
	s.ID = uuid.New()

	query := `INSERT INTO students (id, student_numeric_id, class_id, device_id)
		VALUES ($1, $2, $3, $4) RETURNING created_at`

	return translate(r.pool.QueryRow(ctx, query,
		s.ID, s.StudentNumericID, s.ClassID, s.DeviceID,
	).Scan(&s.CreatedAt))
}

func (r *StudentRepo) GetByID(ctx context.Context, id uuid.UUID, deviceID string) (*models.Student, error) {
	s := &models.Student{}
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1 AND device_id = $2`

	err := r.pool.QueryRow(ctx, query, id, deviceID).Scan(
		&s.ID, &s.StudentNumericID, &s.ClassID, &s.DeviceID, &s.RawNotes,
		&s.AIPersonalityTag, &s.AIFullPortrait, &s.AIDosDonts, &s.CreatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

func (r *StudentRepo) ListByClass(ctx context.Context, classID uuid.UUID, deviceID string) ([]*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students
		WHERE class_id = $1 AND device_id = $2
		ORDER BY student_numeric_id ASC`

	rows, err := r.pool.Query(ctx, query, classID, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		s := &models.Student{}
		err := rows.Scan(
			&s.ID, &s.StudentNumericID, &s.ClassID, &s.DeviceID, &s.RawNotes,
			&s.AIPersonalityTag, &s.AIFullPortrait, &s.AIDosDonts, &s.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}

	return students, rows.Err()
}

func (r *StudentRepo) UpdateNotes(ctx context.Context, id uuid.UUID, deviceID, notes string) error {
	return expectRow(r.pool.Exec(ctx,
		"UPDATE students SET raw_notes = $1 WHERE id = $2 AND device_id = $3",
		notes, id, deviceID,
	))
}

// UpdateAnalysis stores the three AI fields in one statement.
func (r *StudentRepo) UpdateAnalysis(ctx context.Context, id uuid.UUID, deviceID string, tag, portrait, dosDonts string) error {
	return expectRow(r.pool.Exec(ctx,
		`UPDATE students SET ai_personality_tag = $1, ai_full_portrait = $2, ai_dos_donts = $3
		 WHERE id = $4 AND device_id = $5`,
		tag, portrait, dosDonts, id, deviceID,
	))
}

func (r *StudentRepo) Delete(ctx context.Context, id uuid.UUID, deviceID string) error {
	return expectRow(r.pool.Exec(ctx, "DELETE FROM students WHERE id = $1 AND device_id = $2", id, deviceID))
}

// DeleteByClass removes every student of a class. Deleting zero rows is not
// an error: an empty class is valid.
func (r *StudentRepo) DeleteByClass(ctx context.Context, classID uuid.UUID, deviceID string) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM students WHERE class_id = $1 AND device_id = $2", classID, deviceID)
	return err
}
