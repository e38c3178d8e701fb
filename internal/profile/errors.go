package profile

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUpload   = errors.New("avatar upload failed")
	ErrPersist  = errors.New("database error")
	ErrNotFound = errors.New("profile not found")

	// ErrReadBack means the row was written but the stored copy could not
	// be decoded.
	ErrReadBack = errors.New("profile saved but not read back")
)

// FieldErrors maps a field name to its validation messages.
type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e FieldErrors) Has(field string) bool {
	return len(e[field]) > 0
}

func (e FieldErrors) Merge(other FieldErrors) {
	for field, msgs := range other {
		for _, msg := range msgs {
			e.Add(field, msg)
		}
	}
}

// Only drops every error that does not belong to one of fields.
func (e FieldErrors) Only(fields []string) FieldErrors {
	out := FieldErrors{}
	for _, field := range fields {
		if msgs, ok := e[field]; ok {
			out[field] = msgs
		}
	}
	return out
}

// Fields returns the failing field names in sorted order.
func (e FieldErrors) Fields() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidationError is returned when a payload is rejected by the schema.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return "invalid profile data: " + strings.Join(e.Fields.Fields(), ", ")
}
