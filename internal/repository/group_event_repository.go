package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/studygroup-backend/internal/model"
)

// GroupEventRepository appends study group events to the audit table.
type GroupEventRepository struct {
	pool *pgxpool.Pool
}

// NewGroupEventRepository creates a new GroupEventRepository.
func NewGroupEventRepository(pool *pgxpool.Pool) *GroupEventRepository {
	return &GroupEventRepository{pool: pool}
}

// Append inserts one event. A zero UserID is stored as NULL.
func (r *GroupEventRepository) Append(ctx context.Context, e *model.GroupEvent) error {
	var userID *int
	if e.UserID > 0 {
		userID = &e.UserID
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO study_group_events (event_type, group_id, subject, user_id, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		string(e.Type), e.GroupID, e.Subject.String(), userID, e.OccurredAt,
	)
	return err
}
