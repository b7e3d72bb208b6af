package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeno035/taskhive/internal/domain"
)

func TestTaskHandlerCreate(t *testing.T) {
	owner := domain.Identity{ID: uuid.New(), Email: "ada@example.com"}

	t.Run("creates task with defaults", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/tasks",
			strings.NewReader(`{"title":"Write report"}`))
		rec := doRequest(handler.Create, withIdentity(req, owner))

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp TaskResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Write report", resp.Title)
		assert.Equal(t, "pending", resp.Status)
		assert.Equal(t, "medium", resp.Priority)
		assert.Equal(t, owner.ID.String(), resp.CreatedBy)
		assert.NotNil(t, resp.Collaborators)
	})

	t.Run("accepts RFC 3339 due date", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		body := `{"title":"Ship release","due_date":"` + futureDate(t) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(body))
		rec := doRequest(handler.Create, withIdentity(req, owner))

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp TaskResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.DueDate)
	})

	t.Run("rejects malformed due date", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/tasks",
			strings.NewReader(`{"title":"Ship","due_date":"next tuesday"}`))
		rec := doRequest(handler.Create, withIdentity(req, owner))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects missing title", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/tasks",
			strings.NewReader(`{"description":"no title"}`))
		rec := doRequest(handler.Create, withIdentity(req, owner))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Title")
	})

	t.Run("rejects invalid status value", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/tasks",
			strings.NewReader(`{"title":"Ship","status":"done"}`))
		rec := doRequest(handler.Create, withIdentity(req, owner))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects unauthenticated request", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/tasks",
			strings.NewReader(`{"title":"Ship"}`))
		rec := doRequest(handler.Create, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTaskHandlerGet(t *testing.T) {
	owner := domain.Identity{ID: uuid.New(), Email: "ada@example.com"}
	stranger := domain.Identity{ID: uuid.New(), Email: "mallory@example.com"}

	handler, tasks := newTestHandler(t)
	task := seedTask(t, tasks, owner, "Quarterly numbers")

	get := func(identity domain.Identity, id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+id, nil)
		req = withIdentity(req, identity)
		req = withURLParam(req, "id", id)
		return doRequest(handler.Get, req)
	}

	t.Run("owner reads own task", func(t *testing.T) {
		rec := get(owner, task.ID.String())
		require.Equal(t, http.StatusOK, rec.Code)

		var resp TaskResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, task.ID.String(), resp.ID)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		rec := get(stranger, task.ID.String())
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown task is not found", func(t *testing.T) {
		rec := get(owner, uuid.NewString())
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is a bad request", func(t *testing.T) {
		rec := get(owner, "not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTaskHandlerUpdate(t *testing.T) {
	owner := domain.Identity{ID: uuid.New(), Email: "ada@example.com"}

	handler, tasks := newTestHandler(t)
	task := seedTask(t, tasks, owner, "Draft")

	t.Run("partial update keeps absent fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/tasks/"+task.ID.String(),
			strings.NewReader(`{"status":"in-progress"}`))
		req = withIdentity(req, owner)
		req = withURLParam(req, "id", task.ID.String())
		rec := doRequest(handler.Update, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp TaskResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "in-progress", resp.Status)
		assert.Equal(t, "Draft", resp.Title, "title not in patch should survive")
	})

	t.Run("empty title is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/tasks/"+task.ID.String(),
			strings.NewReader(`{"title":""}`))
		req = withIdentity(req, owner)
		req = withURLParam(req, "id", task.ID.String())
		rec := doRequest(handler.Update, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTaskHandlerDelete(t *testing.T) {
	owner := domain.Identity{ID: uuid.New(), Email: "ada@example.com"}
	collaborator := domain.Identity{ID: uuid.New(), Email: "grace@example.com"}

	handler, tasks := newTestHandler(t)
	task := seedTask(t, tasks, owner, "Old draft")
	task.AddCollaborator(collaborator.Email)
	require.NoError(t, tasks.Update(context.Background(), task))

	del := func(identity domain.Identity) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/api/tasks/"+task.ID.String(), nil)
		req = withIdentity(req, identity)
		req = withURLParam(req, "id", task.ID.String())
		return doRequest(handler.Delete, req)
	}

	t.Run("collaborator cannot delete", func(t *testing.T) {
		rec := del(collaborator)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner deletes", func(t *testing.T) {
		rec := del(owner)
		require.Equal(t, http.StatusOK, rec.Code)

		_, err := tasks.GetByID(context.Background(), task.ID)
		assert.Error(t, err)
	})
}

func TestTaskHandlerShare(t *testing.T) {
	owner := domain.Identity{ID: uuid.New(), Email: "ada@example.com"}

	handler, tasks := newTestHandler(t)
	task := seedTask(t, tasks, owner, "Plan offsite")

	t.Run("share adds collaborator", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+task.ID.String()+"/share",
			strings.NewReader(`{"email":"Grace@Example.COM"}`))
		req = withIdentity(req, owner)
		req = withURLParam(req, "id", task.ID.String())
		rec := doRequest(handler.Share, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp TaskResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Collaborators, "grace@example.com")
	})

	t.Run("invalid email is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+task.ID.String()+"/share",
			strings.NewReader(`{"email":"not-an-email"}`))
		req = withIdentity(req, owner)
		req = withURLParam(req, "id", task.ID.String())
		rec := doRequest(handler.Share, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTaskHandlerComplete(t *testing.T) {
	owner := domain.Identity{ID: uuid.New(), Email: "ada@example.com"}
	collaborator := domain.Identity{ID: uuid.New(), Email: "grace@example.com"}

	handler, tasks := newTestHandler(t)
	task := seedTask(t, tasks, owner, "Review slides")
	task.AddCollaborator(collaborator.Email)
	require.NoError(t, tasks.Update(context.Background(), task))

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+task.ID.String()+"/complete", nil)
	req = withIdentity(req, collaborator)
	req = withURLParam(req, "id", task.ID.String())
	rec := doRequest(handler.Complete, req)

	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := tasks.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.CompletedBy, collaborator.Email)
}

func TestTaskHandlerList(t *testing.T) {
	owner := domain.Identity{ID: uuid.New(), Email: "ada@example.com"}

	t.Run("returns a page of visible tasks", func(t *testing.T) {
		handler, tasks := newTestHandler(t)
		seedTask(t, tasks, owner, "First")
		seedTask(t, tasks, owner, "Second")

		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		rec := doRequest(handler.List, withIdentity(req, owner))

		require.Equal(t, http.StatusOK, rec.Code)

		var resp TaskListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Page)
		assert.Equal(t, int64(2), resp.TotalCount)
		assert.Len(t, resp.Items, 2)
	})

	t.Run("rejects bad pagination", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/tasks?page=zero", nil)
		rec := doRequest(handler.List, withIdentity(req, owner))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects unknown order", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/tasks?order=upward", nil)
		rec := doRequest(handler.List, withIdentity(req, owner))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects unknown priority", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/tasks?priority=urgent", nil)
		rec := doRequest(handler.List, withIdentity(req, owner))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTaskHandlerStats(t *testing.T) {
	owner := domain.Identity{ID: uuid.New(), Email: "ada@example.com"}

	handler, tasks := newTestHandler(t)
	seedTask(t, tasks, owner, "One")
	done := seedTask(t, tasks, owner, "Two")
	done.Status = domain.StatusCompleted
	require.NoError(t, tasks.Update(context.Background(), done))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/stats", nil)
	rec := doRequest(handler.Stats, withIdentity(req, owner))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Total)
	assert.Equal(t, int64(1), resp.Completed)
	assert.Equal(t, int64(1), resp.Pending)
}
