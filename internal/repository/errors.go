package repository

import "errors"

// ErrNotFound indicates a study group was not located.
var ErrNotFound = errors.New("repository: not found")
