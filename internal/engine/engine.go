package engine

import (
	"context"
	"errors"

	"go-vision-console/pkg/models"
)

// ErrImageGenerationUnsupported is returned by engines that cannot produce images
var ErrImageGenerationUnsupported = errors.New("image generation is not supported by this engine")

// Image is an uploaded image handed to an engine
type Image struct {
	MIMEType string
	Data     []byte
}

// Engine produces the raw analysis for each query type
type Engine interface {
	Describe(ctx context.Context, prompt string, img Image) (string, error)
	Classify(ctx context.Context, img Image) (map[string]float64, error)
	Detect(ctx context.Context, img Image) ([]models.Detection, string, error)
	ExtractText(ctx context.Context, img Image) (models.TextExtractionPayload, error)
	Sentiment(ctx context.Context, text string, img Image) (models.SentimentPayload, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
	Name() string
}
