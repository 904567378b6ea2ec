package service

import (
	"cmp"
	"log/slog"
	"time"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

// SortStrategy orders todos for GetAll. It follows the slices.SortFunc
// convention: negative when a sorts before b.
type SortStrategy func(a, b domain.TodoItem) int

// Validator applies business rules beyond the built-in field checks. A non-nil
// error rejects the item with ErrValidationFailed.
type Validator interface {
	Validate(item domain.TodoItem) error
}

type ValidatorFunc func(item domain.TodoItem) error

func (f ValidatorFunc) Validate(item domain.TodoItem) error { return f(item) }

// NewestFirst is the default GetAll ordering.
func NewestFirst(a, b domain.TodoItem) int {
	return b.CreatedDate.Compare(a.CreatedDate)
}

// ByPriorityThenNewest puts the most urgent items first.
func ByPriorityThenNewest(a, b domain.TodoItem) int {
	if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
		return c
	}
	return NewestFirst(a, b)
}

func recentlyCompletedFirst(a, b domain.TodoItem) int {
	switch {
	case a.CompletedDate == nil && b.CompletedDate == nil:
		return 0
	case a.CompletedDate == nil:
		return 1
	case b.CompletedDate == nil:
		return -1
	}
	return b.CompletedDate.Compare(*a.CompletedDate)
}

type options struct {
	sort      SortStrategy
	validator Validator
	observers []Observer
	now       func() time.Time
	log       *slog.Logger
}

type Option func(*options)

// WithSortStrategy replaces the GetAll ordering. When given more than once the
// last one wins.
func WithSortStrategy(s SortStrategy) Option {
	return func(o *options) { o.sort = s }
}

func WithValidator(v Validator) Option {
	return func(o *options) { o.validator = v }
}

// WithObservers appends observers; notification order is registration order.
func WithObservers(obs ...Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs...) }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}
