package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollectorRecordsRequests(t *testing.T) {
	c := NewCollector()

	c.RecordRequest(http.MethodGet, http.StatusOK, 5*time.Millisecond)
	c.RecordRequest(http.MethodGet, http.StatusOK, 7*time.Millisecond)
	c.RecordRequest(http.MethodPost, http.StatusNotFound, time.Millisecond)

	body := scrape(t, c)
	assert.Contains(t, body, `taskhive_http_requests_total{method="GET",status_code="200"} 2`)
	assert.Contains(t, body, `taskhive_http_requests_total{method="POST",status_code="404"} 1`)
}

func TestCollectorTracksEventsAndClients(t *testing.T) {
	c := NewCollector()

	c.EventPublished("task-created")
	c.EventPublished("task-created")
	c.EventPublished("task-shared")

	c.ClientConnected()
	c.ClientConnected()
	c.ClientDisconnected()

	body := scrape(t, c)
	assert.Contains(t, body, `taskhive_events_published_total{event="task-created"} 2`)
	assert.Contains(t, body, `taskhive_events_published_total{event="task-shared"} 1`)
	assert.Contains(t, body, `taskhive_connected_clients 1`)
}

func TestMiddlewareCapturesStatus(t *testing.T) {
	c := NewCollector()

	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, scrape(t, c), `taskhive_http_requests_total{method="GET",status_code="418"} 1`)
}
