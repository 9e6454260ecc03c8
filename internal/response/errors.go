package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidSubject ErrCode = "INVALID_SUBJECT"

	// ─── Study groups ──────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrDuplicateSubject ErrCode = "DUPLICATE_SUBJECT"
	ErrAlreadyJoined    ErrCode = "ALREADY_JOINED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidSubject:
		return "Subject must be one of Math, Chemistry or Physics."
	case ErrNotFound:
		return "Study group does not exist."
	case ErrDuplicateSubject:
		return "A study group for this subject already exists."
	case ErrAlreadyJoined:
		return "User is already joined to the study group."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrInternal:
		return "Internal server error."
	default:
		return "Unexpected error."
	}
}
