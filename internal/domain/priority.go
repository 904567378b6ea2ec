package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type Priority int

const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = [...]string{"None", "Low", "Medium", "High", "Critical"}

func (p Priority) Valid() bool {
	return p >= PriorityNone && p <= PriorityCritical
}

func (p Priority) String() string {
	if !p.Valid() {
		return "Priority(" + strconv.Itoa(int(p)) + ")"
	}
	return priorityNames[p]
}

// ParsePriority accepts either the numeric value or the case-insensitive name.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		p := Priority(n)
		if !p.Valid() {
			return PriorityNone, fmt.Errorf("%w: priority %d out of range", ErrInvalidArgument, n)
		}
		return p, nil
	}
	for i, name := range priorityNames {
		if strings.EqualFold(name, s) {
			return Priority(i), nil
		}
	}
	return PriorityNone, fmt.Errorf("%w: unknown priority %q", ErrInvalidArgument, s)
}

// Status is the API-facing lifecycle value. Only Pending and Completed are
// produced by the service; the other values are accepted on input.
type Status int

const (
	StatusPending Status = iota + 1
	StatusInProgress
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "InProgress"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}
