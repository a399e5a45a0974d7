package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

// ErrInvalidTransition is matched with errors.Is against every *TransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError reports a rejected status change with both ends of the attempted edge.
type TransitionError struct {
	Entity  string
	Current string
	Target  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot move from %q to %q", e.Entity, e.Current, e.Target)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// transitions is a closed table of legal edges; statuses absent from the keys are unknown.
type transitions[S ~string] map[S][]S

func (t transitions[S]) known(s S) bool {
	_, ok := t[s]
	return ok
}

func (t transitions[S]) allows(from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (t transitions[S]) check(entity string, from, to S) error {
	if !t.allows(from, to) {
		return &TransitionError{Entity: entity, Current: string(from), Target: string(to)}
	}
	return nil
}

func statusValue[S ~string](t transitions[S], entity string, s S) (driver.Value, error) {
	if !t.known(s) {
		return nil, fmt.Errorf("%s: unknown status %q", entity, string(s))
	}
	return string(s), nil
}

func scanStatus[S ~string](t transitions[S], entity string, dst *S, src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("%s: cannot scan status from %T", entity, src)
	}
	if !t.known(S(raw)) {
		return fmt.Errorf("%s: unknown status %q", entity, raw)
	}
	*dst = S(raw)
	return nil
}
