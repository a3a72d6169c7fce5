package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"psychinsights-backend/internal/models"
)

// ClassRepo reads and writes classes. Every statement is filtered on
// device_id so one device can never see or touch another device's rows.
type ClassRepo struct {
	pool *pgxpool.Pool
}

func NewClassRepo(pool *pgxpool.Pool) *ClassRepo {
	return &ClassRepo{pool: pool}
}

func (r *ClassRepo) Create(ctx context.Context, c *models.Class) error {
	c.ID = uuid.New()

	query := `INSERT INTO classes (id, class_name, device_id)
		VALUES ($1, $2, $3) RETURNING created_at`

	return translate(r.pool.QueryRow(ctx, query, c.ID, c.ClassName, c.DeviceID).Scan(&c.CreatedAt))
}

func (r *ClassRepo) ListByDevice(ctx context.Context, deviceID string) ([]*models.Class, error) {
	query := `SELECT c.id, c.class_name, c.class_summary, c.device_id, c.created_at, COUNT(s.id)
		FROM classes c
		LEFT JOIN students s ON s.class_id = c.id AND s.device_id = c.device_id
		WHERE c.device_id = $1
		GROUP BY c.id
		ORDER BY c.created_at DESC`

	rows, err := r.pool.Query(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []*models.Class
	for rows.Next() {
		c := &models.Class{}
		if err := rows.Scan(&c.ID, &c.ClassName, &c.ClassSummary, &c.DeviceID, &c.CreatedAt, &c.StudentCount); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}

	return classes, rows.Err()
}

func (r *ClassRepo) GetByID(ctx context.Context, id uuid.UUID, deviceID string) (*models.Class, error) {
	c := &models.Class{}
	query := `SELECT c.id, c.class_name, c.class_summary, c.device_id, c.created_at,
		(SELECT COUNT(*) FROM students s WHERE s.class_id = c.id AND s.device_id = c.device_id)
		FROM classes c WHERE c.id = $1 AND c.device_id = $2`

	err := r.pool.QueryRow(ctx, query, id, deviceID).Scan(
		&c.ID, &c.ClassName, &c.ClassSummary, &c.DeviceID, &c.CreatedAt, &c.StudentCount,
	)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (r *ClassRepo) UpdateSummary(ctx context.Context, id uuid.UUID, deviceID, summary string) error {
	return expectRow(r.pool.Exec(ctx,
		"UPDATE classes SET class_summary = $1 WHERE id = $2 AND device_id = $3",
		summary, id, deviceID,
	))
}

func (r *ClassRepo) Delete(ctx context.Context, id uuid.UUID, deviceID string) error {
	return expectRow(r.pool.Exec(ctx, "DELETE FROM classes WHERE id = $1 AND device_id = $2", id, deviceID))
}
