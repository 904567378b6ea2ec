package service

import (
	"context"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

// Observer receives lifecycle notifications after a mutation is committed.
// Observers run synchronously in registration order; the first error stops the
// chain and is returned to the caller. The committed write is not undone.
type Observer interface {
	TodoAdded(ctx context.Context, item domain.TodoItem) error
	TodoUpdated(ctx context.Context, item domain.TodoItem) error
	TodoDeleted(ctx context.Context, item domain.TodoItem) error
	TodoCompleted(ctx context.Context, item domain.TodoItem) error
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Added     func(ctx context.Context, item domain.TodoItem) error
	Updated   func(ctx context.Context, item domain.TodoItem) error
	Deleted   func(ctx context.Context, item domain.TodoItem) error
	Completed func(ctx context.Context, item domain.TodoItem) error
}

func (f ObserverFuncs) TodoAdded(ctx context.Context, item domain.TodoItem) error {
	return call(f.Added, ctx, item)
}

func (f ObserverFuncs) TodoUpdated(ctx context.Context, item domain.TodoItem) error {
	return call(f.Updated, ctx, item)
}

func (f ObserverFuncs) TodoDeleted(ctx context.Context, item domain.TodoItem) error {
	return call(f.Deleted, ctx, item)
}

func (f ObserverFuncs) TodoCompleted(ctx context.Context, item domain.TodoItem) error {
	return call(f.Completed, ctx, item)
}

func call(fn func(context.Context, domain.TodoItem) error, ctx context.Context, item domain.TodoItem) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, item)
}
