package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/xeno035/taskhive/internal/api/shared"
	"github.com/xeno035/taskhive/internal/domain"
	"github.com/xeno035/taskhive/internal/service"
)

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService *service.TaskService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// List handles GET /api/tasks requests. The caller sees tasks they created
// plus tasks shared with them; filters, sorting, and pagination come from
// query parameters.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentityFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	filters, err := parseListFilters(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	page, err := h.taskService.List(r.Context(), identity, filters)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{
		Page:       page.Page,
		TotalPages: page.TotalPages,
		TotalCount: page.TotalCount,
		Items:      tasksToResponses(page.Items),
	})
}

// ListMine handles GET /api/tasks/my requests, returning only the tasks the
// caller created.
func (h *TaskHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentityFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	tasks, err := h.taskService.ListMine(r.Context(), identity)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponses(tasks))
}

// ListShared handles GET /api/tasks/shared requests, returning every task
// the caller can see: tasks they own and tasks shared with them.
func (h *TaskHandler) ListShared(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentityFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	tasks, err := h.taskService.ListShared(r.Context(), identity)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponses(tasks))
}

// Stats handles GET /api/tasks/stats requests.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentityFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	stats, err := h.taskService.Stats(r.Context(), identity)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, StatsResponse{
		Total:     stats.Total,
		Completed: stats.Completed,
		Pending:   stats.Pending,
		Overdue:   stats.Overdue,
	})
}

// Create handles POST /api/tasks requests.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := getIdentityFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.taskService.Create(r.Context(), identity, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatus(req.Status),
		Priority:    domain.TaskPriority(req.Priority),
		DueDate:     dueDate,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// Get handles GET /api/tasks/{id} requests.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, taskID, ok := requireIdentityAndTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), identity, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// Update handles PUT /api/tasks/{id} requests. Only fields present in the
// body are changed.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, taskID, ok := requireIdentityAndTaskID(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	patch := service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		patch.Priority = &priority
	}
	if req.DueDate != nil {
		dueDate, err := parseDueDate(*req.DueDate)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		patch.DueDate = dueDate
	}

	task, err := h.taskService.Update(r.Context(), identity, taskID, patch)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// Delete handles DELETE /api/tasks/{id} requests.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, taskID, ok := requireIdentityAndTaskID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), identity, taskID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"message": "Task deleted",
	})
}

// Share handles POST /api/tasks/{id}/share requests, adding a collaborator
// by email. Sharing with an existing collaborator succeeds without change.
func (h *TaskHandler) Share(w http.ResponseWriter, r *http.Request) {
	identity, taskID, ok := requireIdentityAndTaskID(w, r)
	if !ok {
		return
	}

	var req ShareTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.taskService.Share(r.Context(), identity, taskID, req.Email)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// Complete handles POST /api/tasks/{id}/complete requests, recording the
// caller's completion mark. Repeating the call is a no-op.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	identity, taskID, ok := requireIdentityAndTaskID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.MarkCompletion(r.Context(), identity, taskID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"message": "Completion recorded",
	})
}

// parseListFilters reads the list endpoint's query parameters.
func parseListFilters(r *http.Request) (service.ListFilters, error) {
	q := r.URL.Query()

	filters := service.ListFilters{
		Bucket:   q.Get("filter"),
		Priority: domain.TaskPriority(q.Get("priority")),
		Status:   domain.TaskStatus(q.Get("status")),
		SortBy:   q.Get("sortBy"),
	}

	if filters.Priority != "" && !filters.Priority.IsValid() {
		return service.ListFilters{}, domain.NewValidationError("priority",
			"must be one of low, medium, high", domain.ErrInvalidPriority)
	}
	if filters.Status != "" && !filters.Status.IsValid() {
		return service.ListFilters{}, domain.NewValidationError("status",
			"must be one of pending, in-progress, completed", domain.ErrInvalidStatus)
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return service.ListFilters{}, domain.NewValidationError("page",
				"must be a positive integer", domain.ErrValidation)
		}
		filters.Page = page
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return service.ListFilters{}, domain.NewValidationError("limit",
				"must be a positive integer", domain.ErrValidation)
		}
		filters.PageSize = limit
	}

	switch q.Get("order") {
	case "", "asc":
	case "desc":
		filters.SortDescending = true
	default:
		return service.ListFilters{}, domain.NewValidationError("order",
			"must be asc or desc", domain.ErrValidation)
	}

	return filters, nil
}
