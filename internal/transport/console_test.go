package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go-vision-console/internal/config"
	"go-vision-console/internal/notify"
	"go-vision-console/internal/observer"
	"go-vision-console/internal/session"
	"go-vision-console/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct{}

func (stubClient) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResponse, error) {
	if req.QueryType == models.QuerySentiment {
		return models.NewErrorResponse(req.QueryType, "model overloaded"), nil
	}
	return models.NewResponse(models.DetectionPayload{Objects: []models.Detection{
		{Class: "cat", Confidence: 0.9},
		{Class: "dog", Confidence: 0.5},
	}}), nil
}

type consoleFixture struct {
	handler http.Handler
	cookie  *http.Cookie
	metrics *observer.MetricsObserver
}

func newConsoleFixture(t *testing.T) *consoleFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(metrics)

	sessions := session.NewRegistry(session.Dependencies{
		Client:        stubClient{},
		Events:        events,
		NotifyOptions: []notify.Option{notify.WithLifetime(time.Minute)},
	}, time.Minute)
	t.Cleanup(sessions.Close)

	cfg := &config.Config{MaxRequestBodySize: 10 << 20, SubmitTimeout: time.Minute}
	f := &consoleFixture{handler: NewConsoleHandler(sessions, metrics, cfg), metrics: metrics}

	w := f.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="dropZone"`)
	assert.Contains(t, w.Body.String(), "Object Detection")

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			f.cookie = c
		}
	}
	require.NotNil(t, f.cookie, "page load sets the session cookie")
	return f
}

func (f *consoleFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if f.cookie != nil {
		req.AddCookie(f.cookie)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *consoleFixture) state(t *testing.T) session.State {
	t.Helper()
	w := f.do(t, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var st session.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	return st
}

func uploadRequest(t *testing.T, source string, names ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		require.NoError(t, png.Encode(part, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	}
	require.NoError(t, mw.WriteField("source", source))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func submitRequest(input string, qt models.QueryType) *http.Request {
	form := url.Values{"input": {input}, "query_type": {string(qt)}}
	req := httptest.NewRequest(http.MethodPost, "/api/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestConsole_UploadSubmitAndChart(t *testing.T) {
	f := newConsoleFixture(t)

	w := f.do(t, uploadRequest(t, "drop", "cat.png", "second.png"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = f.do(t, uploadRequest(t, "picker", "dog.png"))
	require.Equal(t, http.StatusOK, w.Code)

	st := f.state(t)
	require.Len(t, st.Images, 2, "only the first file of a drop is staged")
	assert.Equal(t, "cat.png", st.Images[0].Filename)
	assert.Equal(t, "dog.png", st.Preview.Filename)

	w = f.do(t, submitRequest("", models.QueryObjectDetection))
	require.Equal(t, http.StatusOK, w.Code)
	var reply struct {
		Outcome struct {
			Requests int `json:"requests"`
			Rendered int `json:"rendered"`
		} `json:"outcome"`
		State session.State `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, 2, reply.Outcome.Requests)
	assert.Equal(t, 2, reply.Outcome.Rendered)
	assert.True(t, reply.State.ResultsVisible)
	require.Len(t, reply.State.Results, 2)
	assert.Contains(t, reply.State.Results[0].HTML, "Results for: cat.png")
	assert.Equal(t, "Analyze Image", reply.State.Busy.Trigger.Label)

	w = f.do(t, httptest.NewRequest(http.MethodGet, reply.State.Results[1].ChartURL, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	_, err := png.Decode(w.Body)
	assert.NoError(t, err)

	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/results/9/chart.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = f.do(t, httptest.NewRequest(http.MethodGet, "/api/results/x/chart.png", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "available", health["status"])
	assert.Equal(t, float64(1), health["sessions"])
	assert.Equal(t, int64(2), f.metrics.GetMetrics()["units_rendered"])
}

func TestConsole_PreconditionAndBackendErrorsNotify(t *testing.T) {
	f := newConsoleFixture(t)

	w := f.do(t, submitRequest("", models.QueryClassification))
	require.Equal(t, http.StatusOK, w.Code)
	st := f.state(t)
	require.Len(t, st.Notifications, 1)
	assert.Equal(t, "Please upload at least one image", st.Notifications[0].Message)
	assert.Equal(t, "bg-danger", st.Notifications[0].BgClass)

	require.Equal(t, http.StatusOK, f.do(t, uploadRequest(t, "picker", "face.png")).Code)
	f.do(t, submitRequest("", models.QuerySentiment))
	st = f.state(t)
	require.Len(t, st.Notifications, 2)
	assert.Equal(t, "Error: model overloaded", st.Notifications[1].Message)
	assert.Empty(t, st.Results)

	id := st.Notifications[0].ID
	w = f.do(t, httptest.NewRequest(http.MethodPost, "/api/notifications/"+id+"/dismiss", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, f.state(t).Notifications, 1)

	w = f.do(t, httptest.NewRequest(http.MethodPost, "/api/notifications/nope/dismiss", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConsole_RejectsNonImageUpload(t *testing.T) {
	f := newConsoleFixture(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", "notes.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("just text"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := f.do(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	st := f.state(t)
	assert.Empty(t, st.Images)
	require.Len(t, st.Notifications, 1)
	assert.Equal(t, "error", string(st.Notifications[0].Severity))
}

func TestConsole_DeleteImages(t *testing.T) {
	f := newConsoleFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, uploadRequest(t, "picker", "a.png")).Code)
	require.Equal(t, http.StatusOK, f.do(t, uploadRequest(t, "picker", "b.png")).Code)

	w := f.do(t, httptest.NewRequest(http.MethodDelete, "/api/images/current", nil))
	require.Equal(t, http.StatusOK, w.Code)
	st := f.state(t)
	require.Len(t, st.Images, 1)
	assert.False(t, st.Preview.Visible)
	assert.Equal(t, "Image deleted successfully", st.Notifications[0].Message)

	w = f.do(t, httptest.NewRequest(http.MethodDelete, "/api/images/a.png", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.state(t).Images)

	w = f.do(t, httptest.NewRequest(http.MethodDelete, "/api/images/a.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConsole_DropZoneEvents(t *testing.T) {
	f := newConsoleFixture(t)

	tests := []struct {
		event  string
		code   int
		active bool
	}{
		{"dragenter", http.StatusOK, true},
		{"dragover", http.StatusOK, true},
		{"dragleave", http.StatusOK, false},
		{"dragenter", http.StatusOK, true},
		{"drop", http.StatusOK, false},
		{"click", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		w := f.do(t, httptest.NewRequest(http.MethodPost, "/api/dropzone/"+tt.event, nil))
		require.Equal(t, tt.code, w.Code, tt.event)
		if tt.code != http.StatusOK {
			continue
		}
		var reply map[string]bool
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
		assert.True(t, reply["prevent_default"])
		assert.Equal(t, tt.active, reply["active"], tt.event)
	}
}

func TestConsole_SessionRequired(t *testing.T) {
	f := newConsoleFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "stale"})
	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// reloading the page replaces the session
	old := f.cookie
	w = f.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	req = httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.AddCookie(old)
	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConsole_About(t *testing.T) {
	f := newConsoleFixture(t)
	w := f.do(t, httptest.NewRequest(http.MethodGet, "/about", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Text to Image")
}
