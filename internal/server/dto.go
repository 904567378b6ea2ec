package server

import (
	"strings"
	"time"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

type CreateTodoRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Priority    *domain.Priority `json:"priority"`
	// DueDate is accepted for client compatibility but not stored.
	DueDate *time.Time `json:"dueDate"`
}

func (req CreateTodoRequest) toEntity() *domain.TodoItem {
	priority := domain.PriorityMedium
	if req.Priority != nil {
		priority = *req.Priority
	}
	return &domain.TodoItem{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Priority:    priority,
	}
}

type UpdateTodoRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	DueDate     *time.Time      `json:"dueDate"`
	Status      domain.Status   `json:"status"`
}

func (req UpdateTodoRequest) toEntity(id int) *domain.TodoItem {
	return &domain.TodoItem{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Priority:    req.Priority,
		IsCompleted: req.Status == domain.StatusCompleted,
	}
}

type TodoResponse struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	Status      domain.Status   `json:"status"`
	DueDate     *time.Time      `json:"dueDate"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	IsCompleted bool            `json:"isCompleted"`
	CompletedAt *time.Time      `json:"completedAt"`
}

func newTodoResponse(item domain.TodoItem) TodoResponse {
	return TodoResponse{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Priority:    item.Priority,
		Status:      item.Status(),
		CreatedAt:   item.CreatedDate,
		UpdatedAt:   item.CreatedDate,
		IsCompleted: item.IsCompleted,
		CompletedAt: item.CompletedDate,
	}
}

func newTodoResponses(items []domain.TodoItem) []TodoResponse {
	out := make([]TodoResponse, 0, len(items))
	for _, item := range items {
		out = append(out, newTodoResponse(item))
	}
	return out
}
