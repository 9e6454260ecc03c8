package model

// User identifies a person who can join study groups.
// Two users are the same user when their IDs match; the other fields are informational.
type User struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// NewUser builds a User value.
func NewUser(id int, firstName, lastName, email string) User {
	return User{ID: id, FirstName: firstName, LastName: lastName, Email: email}
}

// Is reports whether u and other refer to the same user.
func (u User) Is(other User) bool {
	return u.ID == other.ID
}
