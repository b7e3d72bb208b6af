package api

import (
	"fmt"
	"time"

	"github.com/xeno035/taskhive/internal/domain"
)

// Common request/response structures

// LoginRequest defines the payload for the sign-in endpoint. The token is
// an identity credential issued by the external sign-in provider.
type LoginRequest struct {
	Token string `json:"token" validate:"required"`
}

// UserResponse is the client-facing view of a user.
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// AuthResponse defines the successful response for the sign-in endpoint.
type AuthResponse struct {
	// Token is the JWT used for API and websocket authorization
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// CreateTaskRequest defines the payload for task creation.
// Status and priority fall back to their defaults when omitted.
type CreateTaskRequest struct {
	Title       string `json:"title"       validate:"required,min=1,max=500"`
	Description string `json:"description" validate:"max=5000"`
	Status      string `json:"status"      validate:"omitempty,oneof=pending in-progress completed"`
	Priority    string `json:"priority"    validate:"omitempty,oneof=low medium high"`
	DueDate     string `json:"due_date"    validate:"omitempty"`
}

// UpdateTaskRequest defines the payload for task updates. Only the fields
// present in the request are applied; absent fields keep their stored value.
type UpdateTaskRequest struct {
	Title       *string `json:"title"       validate:"omitempty,min=1,max=500"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Status      *string `json:"status"      validate:"omitempty,oneof=pending in-progress completed"`
	Priority    *string `json:"priority"    validate:"omitempty,oneof=low medium high"`
	DueDate     *string `json:"due_date"    validate:"omitempty"`
}

// ShareTaskRequest defines the payload for sharing a task with a
// collaborator by email.
type ShareTaskRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// TaskResponse is the client-facing view of a task.
type TaskResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CreatedBy     string     `json:"created_by"`
	Collaborators []string   `json:"collaborators"`
	CompletedBy   []string   `json:"completed_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TaskListResponse is a page of tasks with pagination metadata.
type TaskListResponse struct {
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	TotalCount int64          `json:"total_count"`
	Items      []TaskResponse `json:"items"`
}

// StatsResponse reports the caller's task counts.
type StatsResponse struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
	Overdue   int64 `json:"overdue"`
}

// taskToResponse converts a domain.Task to its client representation.
func taskToResponse(task *domain.Task) TaskResponse {
	collaborators := task.Collaborators
	if collaborators == nil {
		collaborators = []string{}
	}
	completedBy := task.CompletedBy
	if completedBy == nil {
		completedBy = []string{}
	}

	return TaskResponse{
		ID:            task.ID.String(),
		Title:         task.Title,
		Description:   task.Description,
		Status:        string(task.Status),
		Priority:      string(task.Priority),
		DueDate:       task.DueDate,
		CreatedBy:     task.CreatedBy.String(),
		Collaborators: collaborators,
		CompletedBy:   completedBy,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}
}

// tasksToResponses converts a slice of tasks, returning an empty slice
// rather than nil so clients always receive a JSON array.
func tasksToResponses(tasks []*domain.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, taskToResponse(task))
	}
	return responses
}

// userToResponse converts a domain.User to its client representation.
func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
	}
}

// parseDueDate parses an RFC 3339 due date from a request field.
// An empty value means no due date.
func parseDueDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, domain.NewValidationError("due_date",
			fmt.Sprintf("must be an RFC 3339 timestamp: %v", err), domain.ErrInvalidDueDate)
	}
	return &t, nil
}
