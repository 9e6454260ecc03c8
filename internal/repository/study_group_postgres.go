package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/studygroup-backend/internal/model"
)

var _ StudyGroupRepository = (*PostgresStudyGroupRepository)(nil)

// PostgresStudyGroupRepository persists study groups and their members in PostgreSQL.
type PostgresStudyGroupRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresStudyGroupRepository creates a new PostgresStudyGroupRepository.
func NewPostgresStudyGroupRepository(pool *pgxpool.Pool) *PostgresStudyGroupRepository {
	return &PostgresStudyGroupRepository{pool: pool}
}

// Insert writes the group row and its members in one transaction.
func (r *PostgresStudyGroupRepository) Insert(ctx context.Context, g *model.StudyGroup) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback(ctx)

	if g.ID <= 0 {
		err = tx.QueryRow(ctx,
			`INSERT INTO study_groups (name, subject, create_date)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			g.Name, g.Subject.String(), g.CreateDate(),
		).Scan(&g.ID)
		if err != nil {
			return 0, fmt.Errorf("insert study group: %w", err)
		}
	} else {
		if _, err := tx.Exec(ctx,
			`INSERT INTO study_groups (id, name, subject, create_date) VALUES ($1, $2, $3, $4)`,
			g.ID, g.Name, g.Subject.String(), g.CreateDate(),
		); err != nil {
			return 0, fmt.Errorf("insert seeded study group: %w", err)
		}
		// Keep the serial ahead of caller-supplied ids.
		if _, err := tx.Exec(ctx,
			`SELECT setval(pg_get_serial_sequence('study_groups', 'id'), (SELECT MAX(id) FROM study_groups))`,
		); err != nil {
			return 0, fmt.Errorf("advance study group sequence: %w", err)
		}
	}

	if err := insertMembers(ctx, tx, g); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return g.ID, nil
}

// GetByID retrieves a study group with its members.
func (r *PostgresStudyGroupRepository) GetByID(ctx context.Context, id int) (*model.StudyGroup, error) {
	groups, err := r.query(ctx,
		`SELECT id, name, subject, create_date FROM study_groups WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrNotFound
	}
	return groups[0], nil
}

// GetBySubject lists groups for one subject ordered by id.
func (r *PostgresStudyGroupRepository) GetBySubject(ctx context.Context, subject model.Subject) ([]*model.StudyGroup, error) {
	return r.query(ctx,
		`SELECT id, name, subject, create_date FROM study_groups WHERE subject = $1 ORDER BY id`,
		subject.String())
}

// GetAll lists every group ordered by id.
func (r *PostgresStudyGroupRepository) GetAll(ctx context.Context) ([]*model.StudyGroup, error) {
	return r.query(ctx, `SELECT id, name, subject, create_date FROM study_groups ORDER BY id`)
}

// Replace rewrites the group row and its member list.
func (r *PostgresStudyGroupRepository) Replace(ctx context.Context, g *model.StudyGroup) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE study_groups SET name = $1, subject = $2 WHERE id = $3`,
		g.Name, g.Subject.String(), g.ID)
	if err != nil {
		return fmt.Errorf("update study group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM study_group_members WHERE group_id = $1`, g.ID); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}
	if err := insertMembers(ctx, tx, g); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func insertMembers(ctx context.Context, tx pgx.Tx, g *model.StudyGroup) error {
	users := g.Users()
	if len(users) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(users))
	for _, u := range users {
		rows = append(rows, []any{g.ID, u.ID, u.FirstName, u.LastName, u.Email})
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"study_group_members"},
		[]string{"group_id", "user_id", "first_name", "last_name", "email"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("insert members: %w", err)
	}
	return nil
}

// query loads group rows and then attaches their members.
func (r *PostgresStudyGroupRepository) query(ctx context.Context, sql string, args ...any) ([]*model.StudyGroup, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query study groups: %w", err)
	}
	defer rows.Close()

	var groups []*model.StudyGroup
	byID := make(map[int]*model.StudyGroup)
	for rows.Next() {
		g, err := scanStudyGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
		byID[g.ID] = g
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return groups, nil
	}

	ids := make([]int, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	memberRows, err := r.pool.Query(ctx,
		`SELECT group_id, user_id, first_name, last_name, email
		 FROM study_group_members WHERE group_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var groupID int
		var u model.User
		if err := memberRows.Scan(&groupID, &u.ID, &u.FirstName, &u.LastName, &u.Email); err != nil {
			return nil, err
		}
		if g, ok := byID[groupID]; ok {
			g.AddUser(u)
		}
	}
	return groups, memberRows.Err()
}

func scanStudyGroup(row pgx.Row) (*model.StudyGroup, error) {
	var (
		id          int
		name        string
		subjectName string
		createDate  time.Time
	)
	if err := row.Scan(&id, &name, &subjectName, &createDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	subject, err := model.ParseSubject(subjectName)
	if err != nil {
		return nil, fmt.Errorf("stored study group %d: %w", id, err)
	}
	return model.NewStudyGroup(id, name, subject, createDate)
}
