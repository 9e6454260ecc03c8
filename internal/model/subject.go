package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Subject is the academic topic a study group is organized around.
// The set is closed: only SubjectMath, SubjectChemistry and SubjectPhysics are valid.
type Subject int

const (
	SubjectMath Subject = iota + 1
	SubjectChemistry
	SubjectPhysics
)

var subjectNames = map[Subject]string{
	SubjectMath:      "Math",
	SubjectChemistry: "Chemistry",
	SubjectPhysics:   "Physics",
}

// AllSubjects returns every valid subject in declaration order.
func AllSubjects() []Subject {
	return []Subject{SubjectMath, SubjectChemistry, SubjectPhysics}
}

// IsValid reports whether s is one of the enumerated subjects.
func (s Subject) IsValid() bool {
	_, ok := subjectNames[s]
	return ok
}

func (s Subject) String() string {
	if name, ok := subjectNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Subject(%d)", int(s))
}

// ParseSubject converts a subject name into a Subject, ignoring case and
// surrounding whitespace.
func ParseSubject(raw string) (Subject, error) {
	name := strings.TrimSpace(raw)
	for _, s := range AllSubjects() {
		if strings.EqualFold(subjectNames[s], name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown subject %q", ErrInvalidArgument, raw)
}

// MarshalJSON encodes the subject by name.
func (s Subject) MarshalJSON() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: cannot encode %s", ErrInvalidArgument, s)
	}
	return json.Marshal(subjectNames[s])
}

// UnmarshalJSON decodes a subject name.
func (s *Subject) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSubject(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
