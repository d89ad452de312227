package service

import (
	"context"
	"strings"
	"time"

	"go-vision-console/internal/engine"
	apperrors "go-vision-console/internal/errors"
	"go-vision-console/internal/logger"
	"go-vision-console/pkg/models"
	"go-vision-console/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Messages returned to the console for rejected requests
const (
	MsgMissingImage      = "Invalid or missing image file"
	MsgInputRequired     = "Input text is required for image generation"
	MsgInvalidQueryType  = "Invalid query type"
	imageErrorPrefix     = "Image processing error: "
	analysisFailedPrefix = "Analysis failed: "
)

// AnalyzeRequest is one form submission to the analyze endpoint
type AnalyzeRequest struct {
	QueryType string
	Input     string
	Image     *models.ImageFile
}

// ImageAnalysisService validates analyze requests and dispatches them to an engine
type ImageAnalysisService interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*models.AnalysisResponse, error)
	EngineName() string
}

// imageAnalysisService implements ImageAnalysisService with a single engine
type imageAnalysisService struct {
	engine    engine.Engine
	validator *validation.UploadValidator
}

// NewImageAnalysisService creates a new image analysis service
func NewImageAnalysisService(e engine.Engine, validator *validation.UploadValidator) ImageAnalysisService {
	if validator == nil {
		validator = validation.NewUploadValidator()
	}
	return &imageAnalysisService{
		engine:    e,
		validator: validator,
	}
}

func (s *imageAnalysisService) EngineName() string {
	return s.engine.Name()
}

// Analyze returns validation errors for bad requests and backend errors for
// engine failures; anything else is a successful response for the query type.
func (s *imageAnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*models.AnalysisResponse, error) {
	qt := models.QueryType(strings.TrimSpace(req.QueryType))

	if req.Image == nil && qt != models.QueryTextToImage {
		return nil, apperrors.NewValidationError(MsgMissingImage, nil)
	}

	var img engine.Image
	if qt != models.QueryTextToImage {
		contentType, err := s.validator.ValidateImageFile(*req.Image)
		if err != nil {
			return nil, apperrors.NewValidationError(imageErrorPrefix+apperrors.UserMessage(err), err)
		}
		img = engine.Image{MIMEType: contentType, Data: req.Image.Data}
	}

	if !qt.Valid() {
		return nil, apperrors.NewValidationError(MsgInvalidQueryType, nil)
	}
	if qt == models.QueryTextToImage && req.Input == "" {
		return nil, apperrors.NewValidationError(MsgInputRequired, nil)
	}

	start := time.Now()
	payload, err := s.dispatch(ctx, qt, req.Input, img)
	fields := logrus.Fields{
		"query_type":         qt,
		"engine":             s.engine.Name(),
		"processing_time_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		logger.WithError(err).WithFields(fields).Error("Analysis error")
		return nil, apperrors.NewBackendError(analysisFailedPrefix+err.Error(), err)
	}

	logger.WithFields(fields).Info("Analysis completed")
	return models.NewResponse(payload), nil
}

func (s *imageAnalysisService) dispatch(ctx context.Context, qt models.QueryType, input string, img engine.Image) (models.Payload, error) {
	switch qt {
	case models.QueryGeneral:
		text, err := s.engine.Describe(ctx, input, img)
		if err != nil {
			return nil, err
		}
		return models.GeneralPayload{Text: text}, nil

	case models.QueryClassification:
		scores, err := s.engine.Classify(ctx, img)
		if err != nil {
			return nil, err
		}
		return models.ClassificationPayload{Scores: scores}, nil

	case models.QueryObjectDetection:
		objects, summary, err := s.engine.Detect(ctx, img)
		if err != nil {
			return nil, err
		}
		return models.DetectionPayload{Objects: objects, Summary: summary}, nil

	case models.QueryTextExtraction:
		return s.engine.ExtractText(ctx, img)

	case models.QuerySentiment:
		return s.engine.Sentiment(ctx, input, img)

	default:
		logger.WithField("input", input).Info("Generating image from text")
		url, err := s.engine.GenerateImage(ctx, input)
		if err != nil {
			return nil, err
		}
		return models.GeneratedImagePayload{ImageURL: url}, nil
	}
}
