package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Tomlord1122/todo-api/internal/domain"
	"github.com/Tomlord1122/todo-api/internal/repository"
)

// TodoService defines the operations for managing todos.
// It contains the core business logic.
type TodoService interface {
	// GetAll returns every todo, newest first unless a sort strategy is configured.
	GetAll(ctx context.Context) ([]domain.TodoItem, error)

	// GetByID returns nil and no error when the todo does not exist or id <= 0.
	GetByID(ctx context.Context, id int) (*domain.TodoItem, error)

	// GetByPriority returns todos of one priority, newest first.
	GetByPriority(ctx context.Context, priority domain.Priority) ([]domain.TodoItem, error)

	// GetCompleted returns completed todos, most recently completed first.
	GetCompleted(ctx context.Context) ([]domain.TodoItem, error)

	// GetPending returns pending todos by priority descending, then newest first.
	GetPending(ctx context.Context) ([]domain.TodoItem, error)

	// Search returns todos whose title contains the given text (case-sensitive).
	Search(ctx context.Context, title string) ([]domain.TodoItem, error)

	// Add validates and persists a new todo. Creation and completion fields
	// supplied by the caller are overwritten.
	Add(ctx context.Context, item *domain.TodoItem) (*domain.TodoItem, error)

	// Update overwrites title, description and priority of an existing todo and
	// applies the Pending/Completed transition.
	Update(ctx context.Context, item *domain.TodoItem) (*domain.TodoItem, error)

	// Delete removes a todo and reports whether anything was deleted.
	Delete(ctx context.Context, id int) (bool, error)

	GetCompletedCount(ctx context.Context) (int, error)
	GetPendingCount(ctx context.Context) (int, error)
	GetStatistics(ctx context.Context) (Statistics, error)
}

// Provider builds a TodoService bound to a fresh unit of work. The HTTP layer
// calls it once per request.
type Provider func() TodoService

// NewProvider returns a Provider that pairs every service with a repository
// from newRepo. All services share opts.
func NewProvider(newRepo func() repository.TodoRepository, opts ...Option) Provider {
	return func() TodoService {
		return NewTodoService(newRepo(), opts...)
	}
}

type todoService struct {
	repo repository.TodoRepository
	opts options
}

// NewTodoService creates a TodoService over repo. Options are fixed for the
// lifetime of the returned service.
func NewTodoService(repo repository.TodoRepository, opts ...Option) TodoService {
	o := options{
		sort: NewestFirst,
		now:  time.Now,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &todoService{repo: repo, opts: o}
}

func (s *todoService) GetAll(ctx context.Context) ([]domain.TodoItem, error) {
	return s.collect(s.repo.GetAll(ctx), s.opts.sort)
}

func (s *todoService) GetByID(ctx context.Context, id int) (*domain.TodoItem, error) {
	if id <= 0 {
		return nil, nil
	}
	return s.repo.GetByID(ctx, id)
}

func (s *todoService) GetByPriority(ctx context.Context, priority domain.Priority) ([]domain.TodoItem, error) {
	return s.collect(s.repo.GetByPriority(ctx, priority), NewestFirst)
}

func (s *todoService) GetCompleted(ctx context.Context) ([]domain.TodoItem, error) {
	return s.collect(s.repo.GetCompleted(ctx), recentlyCompletedFirst)
}

func (s *todoService) GetPending(ctx context.Context) ([]domain.TodoItem, error) {
	return s.collect(s.repo.GetPending(ctx), ByPriorityThenNewest)
}

func (s *todoService) Search(ctx context.Context, title string) ([]domain.TodoItem, error) {
	return s.collect(s.repo.GetByTitle(ctx, title), NewestFirst)
}

func (s *todoService) Add(ctx context.Context, item *domain.TodoItem) (*domain.TodoItem, error) {
	if item == nil {
		return nil, fmt.Errorf("%w: item is required", domain.ErrInvalidArgument)
	}
	s.opts.log.InfoContext(ctx, "adding todo", "title", item.Title)

	// the configured validator sees the item before the built-in field checks
	if s.opts.validator != nil {
		if err := s.opts.validator.Validate(*item); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidationFailed, err)
		}
	}
	if err := checkFields(item); err != nil {
		return nil, err
	}

	item.CreatedDate = s.opts.now()
	item.IsCompleted = false
	item.CompletedDate = nil

	if _, err := s.repo.Add(ctx, item); err != nil {
		return nil, err
	}
	if err := s.repo.SaveChanges(ctx); err != nil {
		return nil, err
	}

	if err := s.notify(ctx, "added", *item, Observer.TodoAdded); err != nil {
		return item, err
	}
	return item, nil
}

func (s *todoService) Update(ctx context.Context, item *domain.TodoItem) (*domain.TodoItem, error) {
	if item == nil {
		return nil, fmt.Errorf("%w: item is required", domain.ErrInvalidArgument)
	}
	s.opts.log.InfoContext(ctx, "updating todo", "id", item.ID, "title", item.Title)

	if item.ID <= 0 {
		return nil, fmt.Errorf("%w: invalid item id %d", domain.ErrInvalidArgument, item.ID)
	}
	if err := checkFields(item); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: todo item with id %d", domain.ErrNotFound, item.ID)
	}

	existing.Title = item.Title
	existing.Description = item.Description
	existing.Priority = item.Priority

	switch {
	case !existing.IsCompleted && item.IsCompleted:
		now := s.opts.now()
		existing.CompletedDate = &now
	case existing.IsCompleted && !item.IsCompleted:
		existing.CompletedDate = nil
	}
	existing.IsCompleted = item.IsCompleted

	if _, err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	if err := s.repo.SaveChanges(ctx); err != nil {
		return nil, err
	}

	if err := s.notify(ctx, "updated", *existing, Observer.TodoUpdated); err != nil {
		return existing, err
	}
	if existing.IsCompleted {
		if err := s.notify(ctx, "completed", *existing, Observer.TodoCompleted); err != nil {
			return existing, err
		}
	}
	return existing, nil
}

func (s *todoService) Delete(ctx context.Context, id int) (bool, error) {
	s.opts.log.InfoContext(ctx, "deleting todo", "id", id)
	if id <= 0 {
		return false, nil
	}

	snapshot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil || !deleted {
		return false, err
	}
	if err := s.repo.SaveChanges(ctx); err != nil {
		return false, err
	}

	if snapshot != nil {
		if err := s.notify(ctx, "deleted", *snapshot, Observer.TodoDeleted); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (s *todoService) GetCompletedCount(ctx context.Context) (int, error) {
	return s.repo.Count(ctx, repository.Completed)
}

func (s *todoService) GetPendingCount(ctx context.Context) (int, error) {
	return s.repo.Count(ctx, repository.Pending)
}

func (s *todoService) GetStatistics(ctx context.Context) (Statistics, error) {
	// one grouped query, so the three figures always agree
	completed, pending, err := s.repo.CountByCompletion(ctx)
	if err != nil {
		return Statistics{}, err
	}
	total := completed + pending
	return Statistics{
		TotalCount:            total,
		CompletedCount:        completed,
		PendingCount:          pending,
		CompletionRatePercent: completionRate(completed, total),
	}, nil
}

func (s *todoService) collect(seq repository.TodoSeq, order func(a, b domain.TodoItem) int) ([]domain.TodoItem, error) {
	items, err := repository.Collect(seq)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.TodoItem{}
	}
	slices.SortStableFunc(items, order)
	return items, nil
}

func (s *todoService) notify(ctx context.Context, event string, item domain.TodoItem, hook func(Observer, context.Context, domain.TodoItem) error) error {
	for _, o := range s.opts.observers {
		if err := hook(o, ctx, item); err != nil {
			s.opts.log.ErrorContext(ctx, "todo observer failed", "event", event, "id", item.ID, "error", err)
			return fmt.Errorf("todo %s observer: %w", event, err)
		}
	}
	return nil
}

func checkFields(item *domain.TodoItem) error {
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", domain.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(item.Title) > domain.MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", domain.ErrInvalidArgument, domain.MaxTitleLength)
	}
	if utf8.RuneCountInString(item.Description) > domain.MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", domain.ErrInvalidArgument, domain.MaxDescriptionLength)
	}
	if !item.Priority.Valid() {
		return fmt.Errorf("%w: priority %d out of range", domain.ErrInvalidArgument, item.Priority)
	}
	return nil
}
