package repository

import (
	"context"

	"github.com/stemsi/studygroup-backend/internal/model"
)

// StudyGroupRepository holds the authoritative set of study groups.
//
// Implementations are not required to be safe for concurrent use and perform no
// business-rule checks; callers serialize access and enforce one group per subject.
type StudyGroupRepository interface {
	// Insert stores group and returns its effective id. An id <= 0 is replaced by
	// a newly assigned one; a positive id is kept as supplied.
	Insert(ctx context.Context, group *model.StudyGroup) (int, error)
	// GetByID returns ErrNotFound when no group has id.
	GetByID(ctx context.Context, id int) (*model.StudyGroup, error)
	GetBySubject(ctx context.Context, subject model.Subject) ([]*model.StudyGroup, error)
	GetAll(ctx context.Context) ([]*model.StudyGroup, error)
	// Replace overwrites the stored record with the same id, or returns ErrNotFound.
	Replace(ctx context.Context, group *model.StudyGroup) error
}
