package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dafibh/casa/casa-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []websocket.Event
}

func (r *recordingPublisher) Publish(ownerID uuid.UUID, event websocket.Event) {
	r.events = append(r.events, event)
}

func TestMiddleware_RecordsRouteAndStatus(t *testing.T) {
	m := NewMetrics()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/v1/expenses/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/api/v1/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot)
	})

	for _, path := range []string{"/api/v1/expenses/a", "/api/v1/expenses/b", "/api/v1/boom"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestsTotal.WithLabelValues("/api/v1/expenses/:id", "GET", "204")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("/api/v1/boom", "GET", "418")))
}

func TestCountingPublisher_CountsAndForwards(t *testing.T) {
	m := NewMetrics()
	next := &recordingPublisher{}
	publisher := NewCountingPublisher(m, next)

	publisher.Publish(uuid.New(), websocket.ExpenseCreated(nil))
	publisher.Publish(uuid.New(), websocket.ExpenseCreated(nil))
	publisher.Publish(uuid.New(), websocket.SettingsUpdated(nil))

	assert.Len(t, next.events, 3)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.eventsTotal.WithLabelValues("expense.created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.eventsTotal.WithLabelValues("settings.updated")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := NewMetrics()
	m.RegisterClientGauge(websocket.NewHub())
	NewCountingPublisher(m, nil).Publish(uuid.New(), websocket.PersonCreated(nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `casa_domain_events_total{type="person.created"} 1`))
	assert.True(t, strings.Contains(body, "casa_websocket_clients 0"))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	called := false
	h := m.Middleware()(func(c echo.Context) error { called = true; return nil })
	e := echo.New()
	require.NoError(t, h(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())))
	assert.True(t, called)
}
