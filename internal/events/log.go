package events

import (
	"context"
	"log/slog"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

// LogObserver writes one structured log line per lifecycle event. It never
// fails.
type LogObserver struct {
	Log *slog.Logger
}

func NewLogObserver(log *slog.Logger) LogObserver {
	if log == nil {
		log = slog.Default()
	}
	return LogObserver{Log: log}
}

func (o LogObserver) TodoAdded(ctx context.Context, item domain.TodoItem) error {
	o.Log.InfoContext(ctx, "todo added", "id", item.ID, "title", item.Title, "priority", item.Priority.String())
	return nil
}

func (o LogObserver) TodoUpdated(ctx context.Context, item domain.TodoItem) error {
	o.Log.InfoContext(ctx, "todo updated", "id", item.ID, "status", item.Status().String())
	return nil
}

func (o LogObserver) TodoDeleted(ctx context.Context, item domain.TodoItem) error {
	o.Log.InfoContext(ctx, "todo deleted", "id", item.ID, "title", item.Title)
	return nil
}

func (o LogObserver) TodoCompleted(ctx context.Context, item domain.TodoItem) error {
	o.Log.InfoContext(ctx, "todo completed", "id", item.ID, "completedDate", item.CompletedDate)
	return nil
}
