package model

import "fmt"

// FailureReason classifies why an operation did not succeed.
type FailureReason string

const (
	ReasonNone            FailureReason = ""
	ReasonInvalidArgument FailureReason = "INVALID_ARGUMENT"
	ReasonNotFound        FailureReason = "NOT_FOUND"
	ReasonConflict        FailureReason = "CONFLICT"
)

// Messages carried by study group results.
const (
	MsgAlreadyJoined = "User is already joined to the study group."
	MsgGroupNotFound = "Study group does not exist."
	MsgNotMember     = "User is not a member of the study group."
)

// DuplicateSubjectMessage is returned when a group for subject already exists.
func DuplicateSubjectMessage(subject Subject) string {
	return fmt.Sprintf("Duplicate subject. Study group with %s subject already exists.", subject)
}

// Result is the outcome of a study group operation whose failure is an expected,
// caller-recoverable condition rather than a fault.
type Result struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Reason  FailureReason `json:"reason,omitempty"`
	// Changed is false when a successful call had nothing to do.
	Changed bool        `json:"changed"`
	Group   *StudyGroup `json:"group,omitempty"`
}

// Ok returns a successful result that changed state.
func Ok(group *StudyGroup) Result {
	return Result{Success: true, Changed: true, Group: group}
}

// Unchanged returns a successful result that left state untouched.
func Unchanged(message string) Result {
	return Result{Success: true, Message: message}
}

// Fail returns a failed result.
func Fail(reason FailureReason, message string) Result {
	return Result{Reason: reason, Message: message}
}
