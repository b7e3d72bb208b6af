package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle status of a task. It is an unconstrained
// enumerated attribute, not a governed state machine: updates may move a task
// between any two statuses, including completed back to pending.
type TaskStatus string

// Known task statuses.
const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// IsValid reports whether the status is one of the known values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// TaskPriority indicates the urgency of a task.
type TaskPriority string

// Known task priorities.
const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// IsValid reports whether the priority is one of the known values.
func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a tracked unit of work. A task is owned by the user who
// created it; CreatedBy is set exactly once and never reassigned. Owners may
// share a task with collaborators by email, and each collaborator may
// individually mark their own completion without touching the owner's Status.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CreatedBy   uuid.UUID    `json:"created_by"`

	// Collaborators holds the lowercased emails the task has been shared
	// with, in insertion order, with case-insensitive deduplication.
	Collaborators []string `json:"collaborators"`

	// CompletedBy holds the subset of Collaborators who marked the task
	// complete for themselves. Entries are idempotent.
	CompletedBy []string `json:"completed_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTask creates a new Task owned by the given user. Status defaults to
// pending and priority to medium when unset. Returns an error if validation
// fails.
func NewTask(createdBy uuid.UUID, title, description string, status TaskStatus, priority TaskPriority, dueDate *time.Time) (*Task, error) {
	if status == "" {
		status = StatusPending
	}
	if priority == "" {
		priority = PriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		ID:            uuid.New(),
		Title:         title,
		Description:   description,
		Status:        status,
		Priority:      priority,
		DueDate:       dueDate,
		CreatedBy:     createdBy,
		Collaborators: []string{},
		CompletedBy:   []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}

	if t.Title == "" {
		return NewValidationError("title", "cannot be empty", ErrEmptyTitle)
	}

	if t.CreatedBy == uuid.Nil {
		return NewValidationError("created_by", "cannot be empty", ErrInvalidID)
	}

	if !t.Status.IsValid() {
		return NewValidationError("status", "must be pending, in-progress or completed", ErrInvalidStatus)
	}

	if !t.Priority.IsValid() {
		return NewValidationError("priority", "must be low, medium or high", ErrInvalidPriority)
	}

	return nil
}

// HasCollaborator reports whether the given email is a collaborator on the
// task. Comparison is case-insensitive.
func (t *Task) HasCollaborator(email string) bool {
	email = NormalizeEmail(email)
	for _, c := range t.Collaborators {
		if c == email {
			return true
		}
	}
	return false
}

// AddCollaborator appends the email to the collaborator set, normalizing to
// lowercase first. Returns true if the email was newly added, false if it was
// already present.
func (t *Task) AddCollaborator(email string) bool {
	email = NormalizeEmail(email)
	if t.HasCollaborator(email) {
		return false
	}
	t.Collaborators = append(t.Collaborators, email)
	return true
}

// CompletedByEmail reports whether the given collaborator has already marked
// this task complete for themselves.
func (t *Task) CompletedByEmail(email string) bool {
	email = NormalizeEmail(email)
	for _, c := range t.CompletedBy {
		if c == email {
			return true
		}
	}
	return false
}

// MarkCompletedBy records the collaborator's individual completion. The
// operation is idempotent: it returns true when the entry was newly added and
// false for a repeat marking.
func (t *Task) MarkCompletedBy(email string) bool {
	email = NormalizeEmail(email)
	if t.CompletedByEmail(email) {
		return false
	}
	t.CompletedBy = append(t.CompletedBy, email)
	return true
}

// IsOwnedBy reports whether the given user created the task.
func (t *Task) IsOwnedBy(userID uuid.UUID) bool {
	return t.CreatedBy == userID
}

// VisibleTo reports whether the identity may see the task: the owner, or
// anyone whose email appears in the collaborator set.
func (t *Task) VisibleTo(actor Identity) bool {
	return t.IsOwnedBy(actor.ID) || t.HasCollaborator(actor.Email)
}
