package repository

import (
	"context"
	"sort"

	"github.com/stemsi/studygroup-backend/internal/model"
)

var _ StudyGroupRepository = (*MemoryStudyGroupRepository)(nil)

// MemoryStudyGroupRepository keeps study groups in process memory.
// It stores and hands out clones so callers never alias stored records.
type MemoryStudyGroupRepository struct {
	groups map[int]*model.StudyGroup
	lastID int
}

// NewMemoryStudyGroupRepository creates an empty in-memory repository.
func NewMemoryStudyGroupRepository() *MemoryStudyGroupRepository {
	return &MemoryStudyGroupRepository{groups: make(map[int]*model.StudyGroup)}
}

func (r *MemoryStudyGroupRepository) Insert(_ context.Context, group *model.StudyGroup) (int, error) {
	if group.ID <= 0 {
		r.lastID++
		for r.groups[r.lastID] != nil {
			r.lastID++
		}
		group.ID = r.lastID
	} else if group.ID > r.lastID {
		r.lastID = group.ID
	}
	r.groups[group.ID] = group.Clone()
	return group.ID, nil
}

func (r *MemoryStudyGroupRepository) GetByID(_ context.Context, id int) (*model.StudyGroup, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, ErrNotFound
	}
	return g.Clone(), nil
}

func (r *MemoryStudyGroupRepository) GetBySubject(_ context.Context, subject model.Subject) ([]*model.StudyGroup, error) {
	var out []*model.StudyGroup
	for _, g := range r.sorted() {
		if g.Subject == subject {
			out = append(out, g.Clone())
		}
	}
	return out, nil
}

func (r *MemoryStudyGroupRepository) GetAll(_ context.Context) ([]*model.StudyGroup, error) {
	sorted := r.sorted()
	out := make([]*model.StudyGroup, 0, len(sorted))
	for _, g := range sorted {
		out = append(out, g.Clone())
	}
	return out, nil
}

func (r *MemoryStudyGroupRepository) Replace(_ context.Context, group *model.StudyGroup) error {
	if _, ok := r.groups[group.ID]; !ok {
		return ErrNotFound
	}
	r.groups[group.ID] = group.Clone()
	return nil
}

func (r *MemoryStudyGroupRepository) sorted() []*model.StudyGroup {
	groups := make([]*model.StudyGroup, 0, len(r.groups))
	for _, g := range r.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups
}
