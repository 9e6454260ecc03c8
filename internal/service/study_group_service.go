package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/studygroup-backend/internal/model"
	"github.com/stemsi/studygroup-backend/internal/repository"
)

// StudyGroupService enforces study group business rules and is the only path
// through which the store is read or mutated.
//
// storeMu guards every store call: reads share it, Insert and Replace hold it
// exclusively. Create keeps it held from the subject check through the insert.
// Join, Leave and UpdateStudyGroup additionally hold the target group's lock from
// load to Replace, so membership changes on one group never overwrite each other.
type StudyGroupService struct {
	store     repository.StudyGroupRepository
	publisher EventPublisher
	log       zerolog.Logger
	now       func() time.Time

	storeMu sync.RWMutex

	locksMu    sync.Mutex
	groupLocks map[int]*refLock
}

// refLock is a group mutex that lives in groupLocks only while it is held or awaited.
type refLock struct {
	mu   sync.Mutex
	refs int
}

// NewStudyGroupService creates a StudyGroupService. A nil publisher disables events.
func NewStudyGroupService(store repository.StudyGroupRepository, publisher EventPublisher, log zerolog.Logger) *StudyGroupService {
	if publisher == nil {
		publisher = NopEventPublisher{}
	}
	return &StudyGroupService{
		store:      store,
		publisher:  publisher,
		log:        log.With().Str("component", "study_group_service").Logger(),
		now:        time.Now,
		groupLocks: make(map[int]*refLock),
	}
}

// Create validates and stores a new study group, refusing a second group for a subject.
func (s *StudyGroupService) Create(ctx context.Context, name string, subject model.Subject, createDate time.Time) (model.Result, error) {
	group, err := model.NewStudyGroup(0, name, subject, createDate)
	if err != nil {
		if errors.Is(err, model.ErrInvalidArgument) {
			return model.Fail(model.ReasonInvalidArgument, err.Error()), nil
		}
		return model.Result{}, err
	}

	res, err := s.insertUnique(ctx, group)
	if err != nil || !res.Success {
		return res, err
	}

	s.log.Info().
		Int("group_id", group.ID).
		Str("subject", subject.String()).
		Msg("Study group created")
	s.publish(ctx, model.GroupEventCreated, group, 0)
	return res, nil
}

func (s *StudyGroupService) insertUnique(ctx context.Context, group *model.StudyGroup) (model.Result, error) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	existing, err := s.store.GetBySubject(ctx, group.Subject)
	if err != nil {
		return model.Result{}, fmt.Errorf("check subject %s: %w", group.Subject, err)
	}
	if len(existing) > 0 {
		s.log.Debug().Str("subject", group.Subject.String()).Msg("Duplicate subject rejected")
		return model.Fail(model.ReasonConflict, model.DuplicateSubjectMessage(group.Subject)), nil
	}

	if _, err := s.store.Insert(ctx, group); err != nil {
		return model.Result{}, fmt.Errorf("insert study group: %w", err)
	}
	return model.Ok(group.Clone()), nil
}

// GetAll returns a snapshot of every study group.
func (s *StudyGroupService) GetAll(ctx context.Context) ([]*model.StudyGroup, error) {
	s.storeMu.RLock()
	defer s.storeMu.RUnlock()

	groups, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list study groups: %w", err)
	}
	return groups, nil
}

// GetByID returns the group with id; found is false when no such group exists.
func (s *StudyGroupService) GetByID(ctx context.Context, id int) (group *model.StudyGroup, found bool, err error) {
	group, err = s.load(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return group, true, nil
}

// SearchBySubject returns the groups for subject. Unknown subjects match nothing.
func (s *StudyGroupService) SearchBySubject(ctx context.Context, subject model.Subject) ([]*model.StudyGroup, error) {
	if !subject.IsValid() {
		return []*model.StudyGroup{}, nil
	}

	s.storeMu.RLock()
	defer s.storeMu.RUnlock()

	groups, err := s.store.GetBySubject(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("search study groups by %s: %w", subject, err)
	}
	if groups == nil {
		groups = []*model.StudyGroup{}
	}
	return groups, nil
}

// Join adds user to the group unless they are already a member.
func (s *StudyGroupService) Join(ctx context.Context, groupID int, user model.User) (model.Result, error) {
	res, err := s.updateMembership(ctx, groupID, func(g *model.StudyGroup) model.Result {
		return g.AddUser(user)
	})
	if err != nil || !res.Changed {
		return res, err
	}

	s.log.Info().Int("group_id", groupID).Int("user_id", user.ID).Msg("User joined study group")
	s.publish(ctx, model.GroupEventMemberJoined, res.Group, user.ID)
	return res, nil
}

// Leave removes user from the group. Leaving a group one is not part of succeeds
// without changing or persisting anything.
func (s *StudyGroupService) Leave(ctx context.Context, groupID int, user model.User) (model.Result, error) {
	res, err := s.updateMembership(ctx, groupID, func(g *model.StudyGroup) model.Result {
		if !g.RemoveUser(user) {
			return model.Unchanged(model.MsgNotMember)
		}
		return model.Ok(g)
	})
	if err != nil || !res.Changed {
		return res, err
	}

	s.log.Info().Int("group_id", groupID).Int("user_id", user.ID).Msg("User left study group")
	s.publish(ctx, model.GroupEventMemberLeft, res.Group, user.ID)
	return res, nil
}

// UpdateStudyGroup writes group's membership back to the store. It returns false when
// group is nil or its id is unknown. Name and Subject must match the stored record.
func (s *StudyGroupService) UpdateStudyGroup(ctx context.Context, group *model.StudyGroup) (bool, error) {
	if group == nil {
		return false, nil
	}
	if !group.Subject.IsValid() {
		return false, fmt.Errorf("%w: subject %s is not supported", model.ErrInvalidArgument, group.Subject)
	}

	unlock := s.lockGroup(group.ID)
	defer unlock()

	stored, err := s.load(ctx, group.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if stored.Name != group.Name || stored.Subject != group.Subject {
		return false, fmt.Errorf("%w: name and subject of study group %d cannot change", model.ErrInvalidArgument, group.ID)
	}

	stored.SetMembersFrom(group)
	err = s.replace(ctx, stored)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// updateMembership serializes a load → apply → replace cycle on one group.
// Replace runs only for successful results that report a change.
func (s *StudyGroupService) updateMembership(ctx context.Context, groupID int, apply func(*model.StudyGroup) model.Result) (model.Result, error) {
	unlock := s.lockGroup(groupID)
	defer unlock()

	group, err := s.load(ctx, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Fail(model.ReasonNotFound, model.MsgGroupNotFound), nil
	}
	if err != nil {
		return model.Result{}, err
	}

	res := apply(group)
	if !res.Success || !res.Changed {
		return res, nil
	}
	if err := s.replace(ctx, group); err != nil {
		return model.Result{}, err
	}
	res.Group = group.Clone()
	return res, nil
}

func (s *StudyGroupService) load(ctx context.Context, id int) (*model.StudyGroup, error) {
	s.storeMu.RLock()
	defer s.storeMu.RUnlock()

	group, err := s.store.GetByID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("get study group %d: %w", id, err)
	}
	return group, err
}

func (s *StudyGroupService) replace(ctx context.Context, group *model.StudyGroup) error {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	if err := s.store.Replace(ctx, group); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		s.log.Error().Err(err).Int("group_id", group.ID).Msg("Failed to replace study group")
		return fmt.Errorf("replace study group %d: %w", group.ID, err)
	}
	return nil
}

// lockGroup locks the mutex for id and returns its release. The map entry is
// dropped once nobody holds or waits for it, so unknown ids leave nothing behind.
func (s *StudyGroupService) lockGroup(id int) func() {
	s.locksMu.Lock()
	l, ok := s.groupLocks[id]
	if !ok {
		l = &refLock{}
		s.groupLocks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		defer s.locksMu.Unlock()
		l.refs--
		if l.refs == 0 {
			delete(s.groupLocks, id)
		}
	}
}

// publish emits a committed change. Failures are logged and never reach the caller.
func (s *StudyGroupService) publish(ctx context.Context, eventType model.GroupEventType, group *model.StudyGroup, userID int) {
	event := model.GroupEvent{
		Type:       eventType,
		GroupID:    group.ID,
		Subject:    group.Subject,
		UserID:     userID,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).
			Str("event", string(eventType)).
			Int("group_id", group.ID).
			Msg("Failed to publish study group event")
	}
}
