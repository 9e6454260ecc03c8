package model

import "time"

// GroupEventType names a committed study group change.
type GroupEventType string

const (
	GroupEventCreated      GroupEventType = "group_created"
	GroupEventMemberJoined GroupEventType = "member_joined"
	GroupEventMemberLeft   GroupEventType = "member_left"
)

// GroupEvent records a change after it has been applied to the store.
type GroupEvent struct {
	Type       GroupEventType `json:"type"`
	GroupID    int            `json:"group_id"`
	Subject    Subject        `json:"subject"`
	UserID     int            `json:"user_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// CreateStudyGroupRequest is the payload for creating a study group.
type CreateStudyGroupRequest struct {
	Name       string     `json:"name" binding:"required,min=1,max=100"`
	Subject    string     `json:"subject" binding:"required,subject"`
	CreateDate *time.Time `json:"create_date"`
}

// MembershipRequest is the payload for joining or leaving a study group.
type MembershipRequest struct {
	UserID    int    `json:"user_id" binding:"required,min=1"`
	FirstName string `json:"first_name" binding:"omitempty,max=100"`
	LastName  string `json:"last_name" binding:"omitempty,max=100"`
	Email     string `json:"email" binding:"omitempty,email"`
}

// User converts the payload to a domain user.
func (r MembershipRequest) User() User {
	return NewUser(r.UserID, r.FirstName, r.LastName, r.Email)
}
