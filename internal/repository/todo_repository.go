package repository

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

// TodoSeq is a lazy sequence of todos as produced by the repository queries.
type TodoSeq = iter.Seq2[*domain.TodoItem, error]

// TodoRepository adds todo-specific queries to the generic contract.
type TodoRepository interface {
	Repository[domain.TodoItem]
	// GetByTitle matches a case-sensitive substring of the title.
	GetByTitle(ctx context.Context, title string) iter.Seq2[*domain.TodoItem, error]
	GetByPriority(ctx context.Context, priority domain.Priority) iter.Seq2[*domain.TodoItem, error]
	GetCompleted(ctx context.Context) iter.Seq2[*domain.TodoItem, error]
	GetPending(ctx context.Context) iter.Seq2[*domain.TodoItem, error]
	// CountByCompletion counts completed and pending todos in a single query.
	CountByCompletion(ctx context.Context) (completed, pending int, err error)
}

// Completed and Pending are reusable predicates for Find and Count.
var (
	Completed Predicate = Where("is_completed = ?", true)
	Pending   Predicate = Where("is_completed = ?", false)
)

// ByPriority filters on priority equality.
func ByPriority(p domain.Priority) Predicate {
	return Where("priority = ?", p)
}

type gormTodoRepository struct {
	*GormRepository[domain.TodoItem]
	now func() time.Time
}

// NewGormTodoRepository creates a todo repository with its own unit of work.
// Create one per request; the returned value is not safe for concurrent use.
func NewGormTodoRepository(db *gorm.DB, log *slog.Logger) TodoRepository {
	return &gormTodoRepository{
		GormRepository: NewGormRepository[domain.TodoItem](NewUnitOfWork(db, log)),
		now:            time.Now,
	}
}

// Add defaults CreatedDate to now when the caller left it unset.
func (r *gormTodoRepository) Add(ctx context.Context, todo *domain.TodoItem) (*domain.TodoItem, error) {
	if todo == nil {
		return nil, fmt.Errorf("%w: todo is nil", domain.ErrInvalidArgument)
	}
	if todo.CreatedDate.IsZero() {
		todo.CreatedDate = r.now()
	}
	return r.GormRepository.Add(ctx, todo)
}

func (r *gormTodoRepository) GetByTitle(ctx context.Context, title string) iter.Seq2[*domain.TodoItem, error] {
	return r.Find(ctx, titleContains(title))
}

func (r *gormTodoRepository) GetByPriority(ctx context.Context, priority domain.Priority) iter.Seq2[*domain.TodoItem, error] {
	return r.Find(ctx, ByPriority(priority))
}

func (r *gormTodoRepository) GetCompleted(ctx context.Context) iter.Seq2[*domain.TodoItem, error] {
	return r.Find(ctx, Completed)
}

func (r *gormTodoRepository) GetPending(ctx context.Context) iter.Seq2[*domain.TodoItem, error] {
	return r.Find(ctx, Pending)
}

func (r *gormTodoRepository) CountByCompletion(ctx context.Context) (completed, pending int, err error) {
	var groups []struct {
		IsCompleted bool
		N           int64
	}
	err = r.uow.conn(ctx).Model(&domain.TodoItem{}).
		Select("is_completed, count(*) AS n").
		Group("is_completed").
		Scan(&groups).Error
	if err != nil {
		return 0, 0, domain.NewPersistenceError("count", err)
	}
	for _, g := range groups {
		if g.IsCompleted {
			completed += int(g.N)
		} else {
			pending += int(g.N)
		}
	}
	return completed, pending, nil
}

// titleContains avoids LIKE, which is case-insensitive on SQLite and needs
// wildcard escaping everywhere.
func titleContains(s string) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		if db.Dialector.Name() == "postgres" {
			return db.Where("title IS NOT NULL AND strpos(title, ?) > 0", s)
		}
		return db.Where("title IS NOT NULL AND instr(title, ?) > 0", s)
	}
}
