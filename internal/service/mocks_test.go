package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/xeno035/taskhive/internal/domain"
	"github.com/xeno035/taskhive/internal/store"
)

// memTaskStore is an in-memory store.TaskStore honoring the query semantics
// the service relies on: visibility, filters, sorting, and pagination. All
// documents are deep-copied on the way in and out so tests can assert that a
// denied mutation left the store untouched.
type memTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task

	// failWith, when set, makes every operation return this error.
	failWith error
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	c.Collaborators = append([]string(nil), t.Collaborators...)
	c.CompletedBy = append([]string(nil), t.CompletedBy...)
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	return &c
}

func (m *memTaskStore) Create(_ context.Context, task *domain.Task) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = cloneTask(task)
	return nil
}

func (m *memTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (m *memTaskStore) Update(_ context.Context, task *domain.Task) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	m.tasks[task.ID] = cloneTask(task)
	return nil
}

func (m *memTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memTaskStore) Find(_ context.Context, q store.TaskQuery) ([]*domain.Task, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*domain.Task
	for _, t := range m.tasks {
		if matches(t, q) {
			matched = append(matched, cloneTask(t))
		}
	}

	sortTasks(matched, q)

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[q.Offset:]
		}
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	return matched, nil
}

func (m *memTaskStore) Count(_ context.Context, q store.TaskQuery) (int64, error) {
	if m.failWith != nil {
		return 0, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, t := range m.tasks {
		if matches(t, q) {
			n++
		}
	}
	return n, nil
}

func matches(t *domain.Task, q store.TaskQuery) bool {
	if q.VisibleToID != uuid.Nil || q.VisibleToEmail != "" {
		if t.CreatedBy != q.VisibleToID && !t.HasCollaborator(q.VisibleToEmail) {
			return false
		}
	}
	if q.OwnedBy != uuid.Nil && t.CreatedBy != q.OwnedBy {
		return false
	}
	if q.Status != "" && t.Status != q.Status {
		return false
	}
	if len(q.AnyStatus) > 0 {
		found := false
		for _, s := range q.AnyStatus {
			if t.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.NotStatus != "" && t.Status == q.NotStatus {
		return false
	}
	if q.Priority != "" && t.Priority != q.Priority {
		return false
	}
	if q.DueFrom != nil && (t.DueDate == nil || t.DueDate.Before(*q.DueFrom)) {
		return false
	}
	if q.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*q.DueBefore)) {
		return false
	}
	return true
}

func sortTasks(tasks []*domain.Task, q store.TaskQuery) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		var less bool
		switch q.SortBy {
		case store.SortByTitle:
			less = a.Title < b.Title
		case store.SortByCreatedAt:
			less = a.CreatedAt.Before(b.CreatedAt)
		case store.SortByUpdatedAt:
			less = a.UpdatedAt.Before(b.UpdatedAt)
		case store.SortByStatus:
			less = a.Status < b.Status
		case store.SortByPriority:
			less = a.Priority < b.Priority
		default: // due date
			switch {
			case a.DueDate == nil:
				less = false
			case b.DueDate == nil:
				less = true
			default:
				less = a.DueDate.Before(*b.DueDate)
			}
		}
		if q.SortDescending {
			return !less
		}
		return less
	})
}

// publishedEvent is one publisher call captured by recordingPublisher.
// An empty room means a global broadcast.
type publishedEvent struct {
	room    string
	event   string
	payload any
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent

	// failWith, when set, makes every publish return this error.
	failWith error
}

func (p *recordingPublisher) BroadcastAll(event string, payload any) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{event: event, payload: payload})
	return nil
}

func (p *recordingPublisher) BroadcastToRoom(room, event string, payload any) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{room: room, event: event, payload: payload})
	return nil
}

func (p *recordingPublisher) recorded() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

var errStoreDown = errors.New("store unavailable")
