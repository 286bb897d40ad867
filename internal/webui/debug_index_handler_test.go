package webui

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mideind/straeto/internal/engine"
	"github.com/mideind/straeto/internal/feed/feedtest"
)

func getDebugPage(t *testing.T, webUI *WebUI, query string) (int, string) {
	t.Helper()

	router := httprouter.New()
	webUI.SetWebUIRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/debug/"+query, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestDebugIndexHandler(t *testing.T) {
	e := engine.New(engine.WithClock(func() time.Time {
		return time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, e.Reload(context.Background(), feedtest.ReykjavikArchive(t)))
	webUI := &WebUI{Engine: e}

	tests := []struct {
		query    string
		title    string
		contains string
	}{
		{"?dataType=stats", "Load statistics", "Stops: (int) 6"},
		{"?dataType=routes", "Routes", "ST.99"},
		{"?dataType=stops", "Stops", "Lækjartorg"},
		{"?dataType=services", "Services active on 2024-03-11", "MON"},
		{"?dataType=realtime_vehicles", "Vehicles", "real-time tracking is disabled"},
		{"", "Choose a data type", "stats, routes, stops"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			code, body := getDebugPage(t, webUI, tt.query)
			assert.Equal(t, http.StatusOK, code)
			assert.Contains(t, body, tt.title)
			assert.Contains(t, body, tt.contains)
		})
	}
}

func TestDebugIndexHandlerWithoutSchedule(t *testing.T) {
	code, body := getDebugPage(t, &WebUI{Engine: engine.New()}, "?dataType=routes")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Schedule not loaded")
}
