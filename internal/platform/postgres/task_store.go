package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/xeno035/taskhive/internal/domain"
	"github.com/xeno035/taskhive/internal/platform/logger"
	"github.com/xeno035/taskhive/internal/store"
)

// sortColumns whitelists the sort fields TaskQuery may name. Anything not in
// this map is rejected with store.ErrInvalidQuery instead of being
// interpolated into SQL.
var sortColumns = map[string]string{
	store.SortByDueDate:   "due_date",
	store.SortByPriority:  "priority",
	store.SortByStatus:    "status",
	store.SortByTitle:     "title",
	store.SortByCreatedAt: "created_at",
	store.SortByUpdatedAt: "updated_at",
}

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create
// It saves a new task to the database, handling domain validation.
// Returns store.ErrInvalidEntity if the creator doesn't exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	collaborators, completedBy, err := marshalLists(task)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, title, description, status, priority, due_date,
			created_by, collaborators, completed_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.CreatedBy,
		collaborators,
		completedBy,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("error", err.Error()),
				slog.String("task_id", task.ID.String()),
				slog.String("created_by", task.CreatedBy.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, task.CreatedBy)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("created_by", task.CreatedBy.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, title, description, status, priority, due_date,
			created_by, collaborators, completed_by, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	return task, nil
}

// Update implements store.TaskStore.Update
// The write is a full-document overwrite; the row's per-statement atomicity
// is the only concurrency control.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	collaborators, completedBy, err := marshalLists(task)
	if err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
			due_date = $5, collaborators = $6, completed_by = $7, updated_at = $8
		WHERE id = $9
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		collaborators,
		completedBy,
		task.UpdatedAt,
		task.ID,
	)

	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		log.Debug("task not found for update",
			slog.String("task_id", task.ID.String()))
		return err
	}

	log.Info("task updated successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// Delete implements store.TaskStore.Delete
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		log.Debug("task not found for delete",
			slog.String("task_id", id.String()))
		return err
	}

	log.Info("task deleted successfully", slog.String("task_id", id.String()))
	return nil
}

// Find implements store.TaskStore.Find
// Returns an empty slice if no tasks match the query.
func (s *PostgresTaskStore) Find(ctx context.Context, q store.TaskQuery) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args, err := buildWhere(q)
	if err != nil {
		return nil, err
	}

	orderBy, err := buildOrderBy(q)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, title, description, status, priority, due_date,
			created_by, collaborators, completed_by, created_at, updated_at
		FROM tasks
	` + where + orderBy

	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return tasks, nil
}

// Count implements store.TaskStore.Count
// Pagination fields on the query are ignored.
func (s *PostgresTaskStore) Count(ctx context.Context, q store.TaskQuery) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args, err := buildWhere(q)
	if err != nil {
		return 0, err
	}

	var count int64
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&count)
	if err != nil {
		log.Error("failed to count tasks",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	return count, nil
}

// buildWhere translates the query's filters into a WHERE clause with
// positional arguments. An empty query yields no clause at all.
func buildWhere(q store.TaskQuery) (string, []any, error) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.VisibleToID != uuid.Nil || q.VisibleToEmail != "" {
		if q.VisibleToID == uuid.Nil || q.VisibleToEmail == "" {
			return "", nil, fmt.Errorf(
				"%w: visibility filter requires both user ID and email",
				store.ErrInvalidQuery)
		}
		emailJSON, err := json.Marshal([]string{q.VisibleToEmail})
		if err != nil {
			return "", nil, fmt.Errorf("failed to marshal visibility email: %w", err)
		}
		conds = append(conds, fmt.Sprintf("(created_by = %s OR collaborators @> %s)",
			arg(q.VisibleToID), arg(emailJSON)))
	}

	if q.OwnedBy != uuid.Nil {
		conds = append(conds, "created_by = "+arg(q.OwnedBy))
	}

	if q.Status != "" {
		conds = append(conds, "status = "+arg(q.Status))
	}

	if len(q.AnyStatus) > 0 {
		placeholders := make([]string, 0, len(q.AnyStatus))
		for _, st := range q.AnyStatus {
			placeholders = append(placeholders, arg(st))
		}
		conds = append(conds, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	if q.NotStatus != "" {
		conds = append(conds, "status <> "+arg(q.NotStatus))
	}

	if q.Priority != "" {
		conds = append(conds, "priority = "+arg(q.Priority))
	}

	if q.DueFrom != nil {
		conds = append(conds, "due_date >= "+arg(*q.DueFrom))
	}

	if q.DueBefore != nil {
		conds = append(conds, "due_date < "+arg(*q.DueBefore))
	}

	if len(conds) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// buildOrderBy resolves the query's sort field against the column whitelist.
// Tasks without a due date always sort last regardless of direction.
func buildOrderBy(q store.TaskQuery) (string, error) {
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = store.SortByCreatedAt
	}

	column, ok := sortColumns[sortBy]
	if !ok {
		return "", fmt.Errorf("%w: unknown sort field %q", store.ErrInvalidQuery, sortBy)
	}

	direction := "ASC"
	if q.SortDescending {
		direction = "DESC"
	}

	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, id ASC", column, direction), nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var dueDate sql.NullTime
	var collaborators, completedBy []byte

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&dueDate,
		&task.CreatedBy,
		&collaborators,
		&completedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		t := dueDate.Time
		task.DueDate = &t
	}

	if err := json.Unmarshal(collaborators, &task.Collaborators); err != nil {
		return nil, fmt.Errorf("failed to decode collaborators for task %s: %w", task.ID, err)
	}
	if err := json.Unmarshal(completedBy, &task.CompletedBy); err != nil {
		return nil, fmt.Errorf("failed to decode completed_by for task %s: %w", task.ID, err)
	}

	return &task, nil
}

// marshalLists encodes the task's email lists for the JSONB columns. Nil
// slices are stored as empty arrays so containment queries behave uniformly.
func marshalLists(task *domain.Task) ([]byte, []byte, error) {
	collaborators := task.Collaborators
	if collaborators == nil {
		collaborators = []string{}
	}
	completedBy := task.CompletedBy
	if completedBy == nil {
		completedBy = []string{}
	}

	collaboratorsJSON, err := json.Marshal(collaborators)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode collaborators: %w", err)
	}
	completedByJSON, err := json.Marshal(completedBy)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode completed_by: %w", err)
	}

	return collaboratorsJSON, completedByJSON, nil
}
