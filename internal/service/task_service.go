package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/xeno035/taskhive/internal/domain"
	"github.com/xeno035/taskhive/internal/policy"
	"github.com/xeno035/taskhive/internal/store"
)

// Event names emitted to the live-connection transport.
const (
	EventTaskCreated = "task-created"
	EventTaskUpdated = "task-updated"
	EventTaskDeleted = "task-deleted"
	EventTaskShared  = "task-shared"
)

// Temporal list buckets.
const (
	BucketNone     = ""
	BucketDueToday = "due-today"
	BucketOverdue  = "overdue"
)

// Pagination defaults, matching the API's documented behavior.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// EventPublisher is the slice of the notification hub the task service needs:
// global fan-out for lifecycle events and room-targeted delivery for sharing.
// Delivery is at most once and fire-and-forget; the only error a publisher
// may return is a transport-not-ready condition, which the service propagates
// rather than swallows.
type EventPublisher interface {
	BroadcastAll(event string, payload any) error
	BroadcastToRoom(room, event string, payload any) error
}

// ListFilters describes a task listing request.
type ListFilters struct {
	// Bucket is one of BucketNone, BucketDueToday, BucketOverdue.
	Bucket   string
	Priority domain.TaskPriority
	Status   domain.TaskStatus

	Page     int
	PageSize int

	// SortBy must be one of the store sort fields; empty defaults to due date.
	SortBy         string
	SortDescending bool
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	TotalCount int64          `json:"total_count"`
	Items      []*domain.Task `json:"items"`
}

// TaskStats are four independently derived counts over the tasks visible to
// a user. Each count is a separate store round-trip; under concurrent writes
// they may not reconcile exactly. That skew is an accepted property of the
// design, not a bug.
type TaskStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
	Overdue   int64 `json:"overdue"`
}

// CreateTaskInput carries the caller-supplied fields for task creation.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
	DueDate     *time.Time
}

// UpdateTaskInput is a shallow patch: nil fields are left untouched on the
// stored task, present fields overwrite.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	DueDate     *time.Time
}

// TaskService implements the task lifecycle: list, create, read, update,
// delete, share, per-collaborator completion, and stats. Every mutation is
// guarded by the access policy first and followed by a notification only
// after the store write has committed.
//
// Concurrency: each operation is a single load-modify-persist sequence with
// no cross-request locking; concurrent updates to the same task are
// last-write-wins by design.
type TaskService struct {
	tasks  store.TaskStore
	events EventPublisher
	logger *slog.Logger

	// now is injectable for tests that pin the day boundary.
	now func() time.Time
}

// NewTaskService creates a TaskService. All dependencies are required except
// the logger, which falls back to slog.Default().
func NewTaskService(tasks store.TaskStore, events EventPublisher, logger *slog.Logger) (*TaskService, error) {
	if tasks == nil {
		return nil, fmt.Errorf("%w: task store is required", ErrInvalidInput)
	}
	if events == nil {
		return nil, fmt.Errorf("%w: event publisher is required", ErrInvalidInput)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskService{
		tasks:  tasks,
		events: events,
		logger: logger.With(slog.String("component", "task_service")),
		now:    time.Now,
	}, nil
}

// List returns the page of tasks visible to the actor (owner or
// collaborator), filtered by temporal bucket, priority, and status.
func (s *TaskService) List(ctx context.Context, actor domain.Identity, filters ListFilters) (*TaskPage, error) {
	page := filters.Page
	if page < 1 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = store.SortByDueDate
	}

	q := store.TaskQuery{
		VisibleToID:    actor.ID,
		VisibleToEmail: actor.Email,
		Priority:       filters.Priority,
		Status:         filters.Status,
		SortBy:         sortBy,
		SortDescending: filters.SortDescending,
		Offset:         (page - 1) * pageSize,
		Limit:          pageSize,
	}

	switch filters.Bucket {
	case BucketNone:
	case BucketDueToday:
		midnight, nextMidnight := s.dayBounds()
		q.DueFrom = &midnight
		q.DueBefore = &nextMidnight
	case BucketOverdue:
		midnight, _ := s.dayBounds()
		q.DueBefore = &midnight
		q.NotStatus = domain.StatusCompleted
	default:
		return nil, fmt.Errorf("%w: unknown filter bucket %q", ErrInvalidInput, filters.Bucket)
	}

	items, err := s.tasks.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	total, err := s.tasks.Count(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	return &TaskPage{
		Page:       page,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
		TotalCount: total,
		Items:      items,
	}, nil
}

// ListMine returns every task the actor created, unpaginated.
func (s *TaskService) ListMine(ctx context.Context, actor domain.Identity) ([]*domain.Task, error) {
	items, err := s.tasks.Find(ctx, store.TaskQuery{
		OwnedBy: actor.ID,
		SortBy:  store.SortByCreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list owned tasks: %w", err)
	}
	return items, nil
}

// ListShared returns every task the actor can see, owned or shared with
// them, unpaginated.
func (s *TaskService) ListShared(ctx context.Context, actor domain.Identity) ([]*domain.Task, error) {
	items, err := s.tasks.Find(ctx, store.TaskQuery{
		VisibleToID:    actor.ID,
		VisibleToEmail: actor.Email,
		SortBy:         store.SortByCreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list shared tasks: %w", err)
	}
	return items, nil
}

// Create validates the input, persists a new task owned by the actor, and
// broadcasts a task-created event to every connected client.
func (s *TaskService) Create(ctx context.Context, actor domain.Identity, input CreateTaskInput) (*domain.Task, error) {
	task, err := domain.NewTask(actor.ID, input.Title, input.Description, input.Status, input.Priority, input.DueDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("created_by", actor.ID.String()))

	if err := s.events.BroadcastAll(EventTaskCreated, task); err != nil {
		return nil, fmt.Errorf("task created but notification failed: %w", err)
	}

	return task, nil
}

// Get retrieves a single task, enforcing the read policy: only the owner or
// a collaborator may see it.
func (s *TaskService) Get(ctx context.Context, actor domain.Identity, id uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if d := policy.Decide(task, actor, policy.ActionRead); !d.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	return task, nil
}

// Update applies a shallow patch to the task. Only the owner may update;
// fields absent from the patch are untouched. Broadcasts a task-updated
// event after the write commits.
func (s *TaskService) Update(ctx context.Context, actor domain.Identity, id uuid.UUID, patch UpdateTaskInput) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if d := policy.Decide(task, actor, policy.ActionUpdate); !d.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		// Status is a free attribute, not a state machine: any valid value
		// transition is accepted, including completed back to pending.
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	task.UpdatedAt = s.now().UTC()

	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Info("task updated", slog.String("task_id", task.ID.String()))

	if err := s.events.BroadcastAll(EventTaskUpdated, task); err != nil {
		return nil, fmt.Errorf("task updated but notification failed: %w", err)
	}

	return task, nil
}

// Delete removes the task permanently. Only the owner may delete.
// Broadcasts a task-deleted event carrying just the task ID.
func (s *TaskService) Delete(ctx context.Context, actor domain.Identity, id uuid.UUID) error {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if d := policy.Decide(task, actor, policy.ActionDelete); !d.Allowed {
		return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Info("task deleted", slog.String("task_id", id.String()))

	if err := s.events.BroadcastAll(EventTaskDeleted, map[string]uuid.UUID{"taskId": id}); err != nil {
		return fmt.Errorf("task deleted but notification failed: %w", err)
	}

	return nil
}

// Share adds a collaborator email to the task. Only the owner may share.
// A newly added collaborator is notified on their private room; sharing with
// an existing collaborator is a no-op that writes and emits nothing. Both
// cases succeed.
func (s *TaskService) Share(ctx context.Context, actor domain.Identity, id uuid.UUID, email string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if d := policy.Decide(task, actor, policy.ActionShare); !d.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: collaborator email is required", ErrInvalidInput)
	}

	if !task.AddCollaborator(email) {
		s.logger.Debug("collaborator already present",
			slog.String("task_id", id.String()),
			slog.String("email", email))
		return task, nil
	}

	task.UpdatedAt = s.now().UTC()
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to share task: %w", err)
	}

	s.logger.Info("task shared",
		slog.String("task_id", id.String()),
		slog.String("email", email))

	if err := s.events.BroadcastToRoom(email, EventTaskShared, task); err != nil {
		return nil, fmt.Errorf("task shared but notification failed: %w", err)
	}

	return task, nil
}

// MarkCompletion records the acting collaborator's individual completion of
// the task. Idempotent: a repeat marking is a successful no-op. The owner's
// task status is not touched, and no event is emitted.
func (s *TaskService) MarkCompletion(ctx context.Context, actor domain.Identity, id uuid.UUID) error {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if d := policy.Decide(task, actor, policy.ActionMarkOwnCompletion); !d.Allowed {
		return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	if !task.MarkCompletedBy(actor.Email) {
		return nil
	}

	task.UpdatedAt = s.now().UTC()
	if err := s.tasks.Update(ctx, task); err != nil {
		return fmt.Errorf("failed to record completion: %w", err)
	}

	s.logger.Info("completion recorded",
		slog.String("task_id", id.String()),
		slog.String("email", actor.Email))
	return nil
}

// Stats computes the four summary counts over the actor's visible tasks.
// Each count is an independent query; see TaskStats for the consistency
// caveat.
func (s *TaskService) Stats(ctx context.Context, actor domain.Identity) (*TaskStats, error) {
	visible := store.TaskQuery{
		VisibleToID:    actor.ID,
		VisibleToEmail: actor.Email,
	}

	total, err := s.tasks.Count(ctx, visible)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	completedQ := visible
	completedQ.Status = domain.StatusCompleted
	completed, err := s.tasks.Count(ctx, completedQ)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed tasks: %w", err)
	}

	pendingQ := visible
	pendingQ.AnyStatus = []domain.TaskStatus{domain.StatusPending, domain.StatusInProgress}
	pending, err := s.tasks.Count(ctx, pendingQ)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending tasks: %w", err)
	}

	midnight, _ := s.dayBounds()
	overdueQ := visible
	overdueQ.DueBefore = &midnight
	overdueQ.NotStatus = domain.StatusCompleted
	overdue, err := s.tasks.Count(ctx, overdueQ)
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue tasks: %w", err)
	}

	return &TaskStats{
		Total:     total,
		Completed: completed,
		Pending:   pending,
		Overdue:   overdue,
	}, nil
}

// dayBounds returns today's local midnight and tomorrow's. The due-today
// bucket is the half-open interval between them.
func (s *TaskService) dayBounds() (time.Time, time.Time) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return midnight, midnight.AddDate(0, 0, 1)
}
