package domain

import "time"

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// TodoItem is the persisted todo record. It carries no behavior; business rules
// live in the service layer.
type TodoItem struct {
	ID            int        `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string     `gorm:"size:200;not null" json:"title"`
	Description   string     `gorm:"size:1000" json:"description,omitempty"`
	Priority      Priority   `gorm:"not null" json:"priority"`
	IsCompleted   bool       `gorm:"not null" json:"isCompleted"`
	CreatedDate   time.Time  `gorm:"not null" json:"createdDate"`
	CompletedDate *time.Time `json:"completedDate,omitempty"`
}

// Identity returns the store-assigned id, zero until the item is added.
func (t TodoItem) Identity() int { return t.ID }

// Status reports the lifecycle state derived from IsCompleted.
func (t TodoItem) Status() Status {
	if t.IsCompleted {
		return StatusCompleted
	}
	return StatusPending
}
