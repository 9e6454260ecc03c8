package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMathGroup(t *testing.T) *StudyGroup {
	t.Helper()
	g, err := NewStudyGroup(1, "Math Study", SubjectMath, time.Now())
	require.NoError(t, err)
	return g
}

func TestNewStudyGroupRequiresName(t *testing.T) {
	for _, name := range []string{"", "   "} {
		g, err := NewStudyGroup(1, name, SubjectMath, time.Now())
		assert.Nil(t, g)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestNewStudyGroupRejectsUnknownSubject(t *testing.T) {
	for _, subject := range []Subject{0, Subject(100), Subject(-1)} {
		_, err := NewStudyGroup(1, "Math Study", subject, time.Now())
		assert.ErrorIs(t, err, ErrInvalidArgument, "subject %d", int(subject))
	}
}

func TestNewStudyGroupRecordsCreateDate(t *testing.T) {
	createDate := time.Date(2024, 3, 14, 9, 26, 53, 0, time.UTC)

	g, err := NewStudyGroup(7, "Test Study Group", SubjectPhysics, createDate)
	require.NoError(t, err)

	assert.Equal(t, 7, g.ID)
	assert.Equal(t, "Test Study Group", g.Name)
	assert.Equal(t, SubjectPhysics, g.Subject)
	assert.True(t, createDate.Equal(g.CreateDate()))
	assert.Zero(t, g.MemberCount())
}

func TestAddUserRejectsSameID(t *testing.T) {
	g := newMathGroup(t)

	res := g.AddUser(NewUser(123, "John", "Smith", "john@gmail.com"))
	require.True(t, res.Success)

	// Same id, different details: still the same user.
	res = g.AddUser(NewUser(123, "Johnny", "S", "other@example.com"))
	assert.False(t, res.Success)
	assert.Equal(t, MsgAlreadyJoined, res.Message)
	assert.Equal(t, ReasonConflict, res.Reason)
	assert.Equal(t, 1, g.MemberCount())
	assert.Equal(t, "John", g.Users()[0].FirstName)
}

func TestRemoveUser(t *testing.T) {
	g := newMathGroup(t)
	user := NewUser(123, "John", "Smith", "john@gmail.com")
	g.AddUser(user)

	assert.True(t, g.RemoveUser(NewUser(123, "", "", "")))
	assert.False(t, g.HasMember(123))
	assert.False(t, g.RemoveUser(user), "removing an absent user is a no-op")
	assert.Zero(t, g.MemberCount())
}

func TestCloneDoesNotShareMembers(t *testing.T) {
	g := newMathGroup(t)
	g.AddUser(NewUser(1, "A", "B", "a@b.c"))

	c := g.Clone()
	c.AddUser(NewUser(2, "C", "D", "c@d.e"))

	assert.Equal(t, 1, g.MemberCount())
	assert.Equal(t, 2, c.MemberCount())
	assert.Equal(t, g.CreateDate(), c.CreateDate())
}

func TestSetMembersFromCopies(t *testing.T) {
	src := newMathGroup(t)
	src.AddUser(NewUser(1, "", "", ""))
	src.AddUser(NewUser(2, "", "", ""))

	dst := newMathGroup(t)
	dst.AddUser(NewUser(9, "", "", ""))
	dst.SetMembersFrom(src)
	assert.Equal(t, []User{NewUser(1, "", "", ""), NewUser(2, "", "", "")}, dst.Users())

	src.RemoveUser(NewUser(1, "", "", ""))
	assert.True(t, dst.HasMember(1))
}

func TestUsersSortedByID(t *testing.T) {
	g := newMathGroup(t)
	for _, id := range []int{30, 10, 20} {
		g.AddUser(NewUser(id, "", "", ""))
	}

	ids := []int{}
	for _, u := range g.Users() {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []int{10, 20, 30}, ids)
}

func TestStudyGroupJSON(t *testing.T) {
	g := newMathGroup(t)
	g.AddUser(NewUser(5, "Ada", "Lovelace", "ada@example.com"))

	raw, err := json.Marshal(g)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "Math", body["subject"])
	assert.Equal(t, "Math Study", body["name"])
	assert.EqualValues(t, 1, body["member_count"])
	assert.Len(t, body["users"], 1)
}
