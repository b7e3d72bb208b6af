package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/xeno035/taskhive/internal/domain"
)

// Sort fields accepted by TaskQuery. Implementations must reject anything
// else with ErrInvalidQuery rather than interpolate it into a query.
const (
	SortByDueDate   = "due_date"
	SortByPriority  = "priority"
	SortByStatus    = "status"
	SortByTitle     = "title"
	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
)

// TaskQuery describes a filtered, sorted, paginated task lookup.
//
// Visibility: when VisibleToID and VisibleToEmail are set, the query matches
// tasks created by that user OR listing that email as a collaborator. Both
// must be set together; they describe one identity, not two filters.
type TaskQuery struct {
	VisibleToID    uuid.UUID
	VisibleToEmail string

	// OwnedBy restricts to tasks created by this user. Mutually exclusive
	// with the VisibleTo pair.
	OwnedBy uuid.UUID

	Status    domain.TaskStatus
	AnyStatus []domain.TaskStatus
	NotStatus domain.TaskStatus
	Priority  domain.TaskPriority

	// DueFrom (inclusive) and DueBefore (exclusive) bound the due date.
	DueFrom   *time.Time
	DueBefore *time.Time

	SortBy         string
	SortDescending bool

	// Offset and Limit paginate the result. Limit <= 0 means no limit.
	Offset int
	Limit  int
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update replaces the stored task with the given document. The write is
	// a full-document overwrite relying on the store's per-document
	// atomicity; no optimistic concurrency control is applied.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task from the store by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Find returns the tasks matching the query, sorted and paginated.
	Find(ctx context.Context, q TaskQuery) ([]*domain.Task, error)

	// Count returns the number of tasks matching the query, ignoring
	// pagination.
	Count(ctx context.Context, q TaskQuery) (int64, error)
}
