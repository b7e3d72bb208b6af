package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/xeno035/taskhive/internal/api/shared"
	"github.com/xeno035/taskhive/internal/domain"
	"github.com/xeno035/taskhive/internal/service"
	"github.com/xeno035/taskhive/internal/store"
)

// fakeTaskStore is a minimal in-memory TaskStore for handler tests.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

var _ store.TaskStore = (*fakeTaskStore)(nil)

func (s *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *fakeTaskStore) Update(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *fakeTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *fakeTaskStore) Find(_ context.Context, q store.TaskQuery) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*domain.Task
	for _, task := range s.tasks {
		if s.matches(task, q) {
			copied := *task
			matched = append(matched, &copied)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []*domain.Task{}, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	if matched == nil {
		matched = []*domain.Task{}
	}
	return matched, nil
}

func (s *fakeTaskStore) Count(ctx context.Context, q store.TaskQuery) (int64, error) {
	q.Offset = 0
	q.Limit = 0
	tasks, err := s.Find(ctx, q)
	if err != nil {
		return 0, err
	}
	return int64(len(tasks)), nil
}

func (s *fakeTaskStore) matches(task *domain.Task, q store.TaskQuery) bool {
	if q.VisibleToID != uuid.Nil {
		if task.CreatedBy != q.VisibleToID && !task.HasCollaborator(q.VisibleToEmail) {
			return false
		}
	}
	if q.OwnedBy != uuid.Nil && task.CreatedBy != q.OwnedBy {
		return false
	}
	if q.Status != "" && task.Status != q.Status {
		return false
	}
	if len(q.AnyStatus) > 0 {
		found := false
		for _, st := range q.AnyStatus {
			if task.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.NotStatus != "" && task.Status == q.NotStatus {
		return false
	}
	if q.Priority != "" && task.Priority != q.Priority {
		return false
	}
	if q.DueFrom != nil && (task.DueDate == nil || task.DueDate.Before(*q.DueFrom)) {
		return false
	}
	if q.DueBefore != nil && (task.DueDate == nil || !task.DueDate.Before(*q.DueBefore)) {
		return false
	}
	return true
}

// nopPublisher satisfies the service's event publisher without a hub.
type nopPublisher struct{}

func (nopPublisher) BroadcastAll(_ string, _ any) error       { return nil }
func (nopPublisher) BroadcastToRoom(_, _ string, _ any) error { return nil }

// newTestHandler wires a TaskHandler over an in-memory store.
func newTestHandler(t *testing.T) (*TaskHandler, *fakeTaskStore) {
	t.Helper()

	tasks := newFakeTaskStore()
	svc, err := service.NewTaskService(tasks, nopPublisher{}, nil)
	require.NoError(t, err)

	return NewTaskHandler(svc, nil), tasks
}

// withIdentity stamps the identity into the request context the way the
// auth middleware would.
func withIdentity(r *http.Request, identity domain.Identity) *http.Request {
	return r.WithContext(shared.SetIdentity(r.Context(), identity))
}

// seedTask inserts a task owned by the given user.
func seedTask(t *testing.T, tasks *fakeTaskStore, owner domain.Identity, title string) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(owner.ID, title, "", "", "", nil)
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), task))
	return task
}

// withURLParam attaches a chi route parameter to the request, standing in
// for the router in direct handler tests.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// doRequest runs the handler func against the request and returns the recorder.
func doRequest(handler http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler(rec, r)
	return rec
}

func futureDate(t *testing.T) string {
	t.Helper()
	return time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
}
