package suite

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("suite not found")

// InvalidEntry is a suite record that failed to parse or validate. It is kept
// in the registry so listings can surface it without blocking other suites.
type InvalidEntry struct {
	ID     string `json:"id"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (e InvalidEntry) Error() string {
	return fmt.Sprintf("invalid suite %q (%s): %s", e.ID, e.Path, e.Reason)
}

// NotFoundError is returned when an explicitly requested id is not runnable.
type NotFoundError struct {
	ID string
	// Reason is set when the id exists but belongs to an invalid entry.
	Reason string
}

func (e *NotFoundError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("suite %q is invalid: %s", e.ID, e.Reason)
	}
	return fmt.Sprintf("suite %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DuplicateIDError aborts registry loading when two records share an id.
type DuplicateIDError struct {
	ID    string
	Paths []string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate suite id %q in %s", e.ID, strings.Join(e.Paths, ", "))
}
