package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrInvalidArgument is wrapped by every construction-time validation error.
var ErrInvalidArgument = errors.New("invalid argument")

// StudyGroup is a named collection of users organized around a single subject.
// Name and Subject are exported for reading. The service never persists a change to
// them or to CreateDate after creation; only membership is written back.
type StudyGroup struct {
	ID         int
	Name       string
	Subject    Subject
	createDate time.Time
	members    map[int]User
}

// NewStudyGroup validates its inputs and builds a group with no members.
// An id <= 0 marks the group as unsaved; the store assigns one on insert.
func NewStudyGroup(id int, name string, subject Subject, createDate time.Time) (*StudyGroup, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: study group name is required", ErrInvalidArgument)
	}
	if !subject.IsValid() {
		return nil, fmt.Errorf("%w: subject %s is not supported", ErrInvalidArgument, subject)
	}
	return &StudyGroup{
		ID:         id,
		Name:       name,
		Subject:    subject,
		createDate: createDate,
		members:    make(map[int]User),
	}, nil
}

// CreateDate returns when the group was created.
func (g *StudyGroup) CreateDate() time.Time {
	return g.createDate
}

// AddUser joins user to the group unless a member with the same id is already present.
func (g *StudyGroup) AddUser(user User) Result {
	if g.HasMember(user.ID) {
		return Fail(ReasonConflict, MsgAlreadyJoined)
	}
	if g.members == nil {
		g.members = make(map[int]User)
	}
	g.members[user.ID] = user
	return Ok(g)
}

// RemoveUser drops user from the group and reports whether anything was removed.
func (g *StudyGroup) RemoveUser(user User) bool {
	if !g.HasMember(user.ID) {
		return false
	}
	delete(g.members, user.ID)
	return true
}

// HasMember reports whether a user with userID belongs to the group.
func (g *StudyGroup) HasMember(userID int) bool {
	_, ok := g.members[userID]
	return ok
}

// MemberCount returns the number of members.
func (g *StudyGroup) MemberCount() int {
	return len(g.members)
}

// Users returns the members ordered by user id.
func (g *StudyGroup) Users() []User {
	users := make([]User, 0, len(g.members))
	for _, u := range g.members {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// SetMembersFrom replaces g's membership with a copy of other's.
func (g *StudyGroup) SetMembersFrom(other *StudyGroup) {
	g.members = make(map[int]User, len(other.members))
	for id, u := range other.members {
		g.members[id] = u
	}
}

// Clone returns a deep copy that shares no membership state with g.
func (g *StudyGroup) Clone() *StudyGroup {
	members := make(map[int]User, len(g.members))
	for id, u := range g.members {
		members[id] = u
	}
	return &StudyGroup{
		ID:         g.ID,
		Name:       g.Name,
		Subject:    g.Subject,
		createDate: g.createDate,
		members:    members,
	}
}

type studyGroupJSON struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Subject     Subject   `json:"subject"`
	CreateDate  time.Time `json:"create_date"`
	MemberCount int       `json:"member_count"`
	Users       []User    `json:"users"`
}

// MarshalJSON exposes the group with its members as a list.
func (g StudyGroup) MarshalJSON() ([]byte, error) {
	return json.Marshal(studyGroupJSON{
		ID:          g.ID,
		Name:        g.Name,
		Subject:     g.Subject,
		CreateDate:  g.createDate,
		MemberCount: g.MemberCount(),
		Users:       g.Users(),
	})
}
