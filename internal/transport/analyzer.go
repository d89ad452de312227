package transport

import (
	"context"
	"io"
	"net/http"
	"time"

	"go-vision-console/internal/config"
	apperrors "go-vision-console/internal/errors"
	"go-vision-console/internal/logger"
	"go-vision-console/internal/service"
	"go-vision-console/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewAnalyzerHandler serves the analysis backend the console submits to
func NewAnalyzerHandler(svc service.ImageAnalysisService, cfg *config.Config) http.Handler {
	r := newEngine(cfg.MaxRequestBodySize)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, healthResponse(gin.H{"engine": svc.EngineName()}))
	})
	r.POST("/analyze", analyze(svc, cfg))

	return r
}

// analyze replies with the analysis document, or {"error": ...} with the
// matching status code
func analyze(svc service.ImageAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.BackendTimeout)
		defer cancel()

		req := service.AnalyzeRequest{
			QueryType: c.PostForm("query_type"),
			Input:     c.PostForm("input"),
		}

		if fh, err := c.FormFile("image"); err == nil {
			f, err := fh.Open()
			if err != nil {
				respondAnalysisError(c, apperrors.NewValidationError("Invalid or missing image file", err))
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				respondAnalysisError(c, apperrors.NewValidationError("Invalid or missing image file", err))
				return
			}
			req.Image = &models.ImageFile{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			}
		} else if code := determineStatusCode(err); code == http.StatusRequestEntityTooLarge {
			respondAnalysisError(c, &apperrors.AppError{
				Type:       apperrors.ErrorTypeValidation,
				Message:    "Request body too large",
				StatusCode: code,
				Cause:      err,
			})
			return
		}

		resp, err := svc.Analyze(ctx, req)
		if err != nil {
			respondAnalysisError(c, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"query_type":         resp.Kind,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Analysis request completed successfully")

		c.JSON(http.StatusOK, resp)
	}
}

func respondAnalysisError(c *gin.Context, err error) {
	code := apperrors.GetStatusCode(err)
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"ip":          c.ClientIP(),
	}).Error("Analysis request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{Error: apperrors.UserMessage(err)})
}
