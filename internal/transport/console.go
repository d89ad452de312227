package transport

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-vision-console/internal/chart"
	"go-vision-console/internal/config"
	"go-vision-console/internal/dropzone"
	apperrors "go-vision-console/internal/errors"
	"go-vision-console/internal/logger"
	"go-vision-console/internal/observer"
	"go-vision-console/internal/session"
	"go-vision-console/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	sessionCookie = "vc_session"
	sessionKey    = "session"
)

var errSessionExpired = apperrors.NewNotFoundError("session expired, reload the page", nil)

type pageData struct {
	State      session.State
	QueryTypes []models.QueryType
	Results    template.HTML
}

// NewConsoleHandler serves the console page and its JSON API
func NewConsoleHandler(sessions *session.Registry, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	r := newEngine(cfg.MaxRequestBodySize)
	r.SetHTMLTemplate(template.Must(template.New("").ParseFS(templateFS, "templates/*.html")))

	r.GET("/", index(sessions))
	r.GET("/about", about)
	r.GET("/health", consoleHealth(sessions, metrics))

	api := r.Group("/api", sessionRequired(sessions))
	api.GET("/state", getState)
	api.POST("/images", uploadImages)
	api.DELETE("/images/current", clearPreview)
	api.DELETE("/images/:filename", removeImage)
	api.POST("/dropzone/:event", dropzoneEvent)
	api.POST("/submit", submitAnalysis(cfg))
	api.POST("/notifications/:id/dismiss", dismissNotification)
	api.GET("/results/:index/chart.png", resultChart)

	return r
}

// index starts a new page session; reloading the page discards the previous one
func index(sessions *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if old, err := c.Cookie(sessionCookie); err == nil && old != "" {
			sessions.Remove(old)
		}

		s := sessions.Create()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, s.ID, 0, "/", "", false, true)

		c.HTML(http.StatusOK, "index.html", pageData{
			State:      s.State(),
			QueryTypes: models.QueryTypes,
			Results:    s.Results.HTML(),
		})
	}
}

func about(c *gin.Context) {
	c.HTML(http.StatusOK, "about.html", nil)
}

func consoleHealth(sessions *session.Registry, metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		extra := gin.H{"sessions": sessions.Len()}
		if metrics != nil {
			extra["metrics"] = metrics.GetMetrics()
		}
		c.JSON(http.StatusOK, healthResponse(extra))
	}
}

func sessionRequired(sessions *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookie)
		if err != nil || id == "" {
			respondError(c, errSessionExpired.StatusCode, "no session", errSessionExpired)
			return
		}
		s, ok := sessions.Get(id)
		if !ok {
			respondError(c, errSessionExpired.StatusCode, "unknown session", errSessionExpired)
			return
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func getState(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).State())
}

// uploadImages accepts the multipart "files" field from the drop zone or the
// file picker. Only the first file is staged.
func uploadImages(c *gin.Context) {
	s := currentSession(c)

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, determineStatusCode(err), "invalid upload", apperrors.NewValidationError("invalid multipart form", err))
		return
	}

	files, err := readFiles(form.File["files"])
	if err != nil {
		respondError(c, determineStatusCode(err), "invalid upload", err)
		return
	}

	dropped := strings.EqualFold(c.PostForm("source"), "drop")
	if _, err := s.Stage(c.Request.Context(), files, dropped); err != nil {
		respondError(c, apperrors.GetStatusCode(err), "image rejected", err)
		return
	}

	logger.WithFields(logrus.Fields{
		"session_id": s.ID,
		"files":      len(files),
		"dropped":    dropped,
	}).Debug("Image staged")
	c.JSON(http.StatusOK, s.State())
}

func readFiles(headers []*multipart.FileHeader) ([]models.ImageFile, error) {
	files := make([]models.ImageFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, apperrors.NewValidationError("unreadable upload", err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, apperrors.NewValidationError("unreadable upload", err)
		}
		files = append(files, models.ImageFile{
			Name:        h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

func clearPreview(c *gin.Context) {
	s := currentSession(c)
	s.ClearPreview()
	c.JSON(http.StatusOK, s.State())
}

func removeImage(c *gin.Context) {
	s := currentSession(c)
	if err := s.RemoveImage(c.Param("filename")); err != nil {
		respondError(c, apperrors.GetStatusCode(err), "remove failed", err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}

func dropzoneEvent(c *gin.Context) {
	s := currentSession(c)
	event, err := dropzone.ParseEvent(c.Param("event"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid event", apperrors.NewValidationError(err.Error(), err))
		return
	}
	prevent := s.DropZone.Handle(event)
	c.JSON(http.StatusOK, gin.H{
		"prevent_default": prevent,
		"active":          s.DropZone.Active(),
	})
}

func submitAnalysis(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := currentSession(c)
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.SubmitTimeout)
		defer cancel()

		input := c.PostForm("input")
		qt := models.QueryType(strings.TrimSpace(c.PostForm("query_type")))

		startTime := time.Now()
		outcome := s.Submit(ctx, input, qt)

		logger.WithFields(logrus.Fields{
			"session_id":         s.ID,
			"query_type":         qt,
			"requests":           outcome.Requests,
			"rendered":           outcome.Rendered,
			"failed":             outcome.Failed,
			"aborted":            outcome.Aborted,
			"rejected":           outcome.Rejected,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Submission handled")

		c.JSON(http.StatusOK, gin.H{
			"outcome": outcome,
			"state":   s.State(),
		})
	}
}

func dismissNotification(c *gin.Context) {
	s := currentSession(c)
	if !s.Notifier.Dismiss(c.Param("id")) {
		respondError(c, http.StatusNotFound, "dismiss failed", apperrors.NewNotFoundError("notification expired", nil))
		return
	}
	c.Status(http.StatusNoContent)
}

// resultChart reports failures through the error middleware
func resultChart(c *gin.Context) {
	s := currentSession(c)
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		_ = c.Error(apperrors.NewValidationError("invalid result index", err))
		return
	}
	result, ok := s.Results.Result(index)
	if !ok {
		_ = c.Error(apperrors.NewNotFoundError("result not found", nil))
		return
	}

	var buf bytes.Buffer
	if err := chart.Result(&buf, result); err != nil {
		if errors.Is(err, chart.ErrNoData) || result.ChartURL == "" {
			_ = c.Error(apperrors.NewNotFoundError("result has no chart", err))
			return
		}
		_ = c.Error(apperrors.NewInternalError("chart rendering failed", err))
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
