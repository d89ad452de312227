package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-vision-console/internal/logger"
	"go-vision-console/pkg/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const (
	defaultDescribePrompt = "Analyze this image in detail."

	classifyPrompt = `Classify the main objects/items in this image. Return exactly 5 classifications in order of confidence.
Format each classification on its own line as "Label: NN%".
Return only the classifications, no additional text.`

	detectPrompt = `Detect and locate objects in this image. For each object, provide one line formatted as
"Class: NN% confidence, location, details" where location is a general position such as "top left" or "center".
Return only the detections, no additional text.`

	extractPrompt = `Extract all text visible in this image.
- Include only the text found in the image
- Separate different text blocks with line breaks
- Do not include any analysis or commentary
- Return only the extracted text`

	sentimentPrompt = `Analyze the sentiment conveyed by this image. Classify it as POSITIVE, NEGATIVE, or NEUTRAL.
Also provide a confidence score as a percentage.
Return only the classification and confidence on one line, no additional text.`

	maxAttempts = 3
)

// GeminiEngine analyses images with Google Gemini models. A client is opened
// per call, so the engine is safe for concurrent use.
type GeminiEngine struct {
	APIKey      string
	TextModel   string
	VisionModel string
}

func NewGeminiEngine(apiKey, textModel, visionModel string) (*GeminiEngine, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	return &GeminiEngine{
		APIKey:      apiKey,
		TextModel:   textModel,
		VisionModel: visionModel,
	}, nil
}

func (g *GeminiEngine) Name() string { return "gemini" }

// Describe answers a free-form prompt about the image
func (g *GeminiEngine) Describe(ctx context.Context, prompt string, img Image) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		logger.Warn("Prompt is empty, using the default description prompt")
		prompt = defaultDescribePrompt
	}
	return g.generate(ctx, g.TextModel, genai.Text(prompt), blob(img))
}

func (g *GeminiEngine) Classify(ctx context.Context, img Image) (map[string]float64, error) {
	text, err := g.generate(ctx, g.VisionModel, genai.Text(classifyPrompt), blob(img))
	if err != nil {
		return nil, err
	}
	return ParseClassifications(text), nil
}

func (g *GeminiEngine) Detect(ctx context.Context, img Image) ([]models.Detection, string, error) {
	text, err := g.generate(ctx, g.VisionModel, genai.Text(detectPrompt), blob(img))
	if err != nil {
		return nil, "", err
	}
	objects, summary := ParseDetections(text)
	return objects, summary, nil
}

func (g *GeminiEngine) ExtractText(ctx context.Context, img Image) (models.TextExtractionPayload, error) {
	text, err := g.generate(ctx, g.TextModel, genai.Text(extractPrompt), blob(img))
	if err != nil {
		return models.TextExtractionPayload{}, err
	}
	return ParseExtractedText(text), nil
}

// Sentiment rates the image, using text as extra context when given
func (g *GeminiEngine) Sentiment(ctx context.Context, text string, img Image) (models.SentimentPayload, error) {
	prompt := sentimentPrompt
	if strings.TrimSpace(text) != "" {
		prompt += "\nAccompanying text: " + text
	}
	reply, err := g.generate(ctx, g.VisionModel, genai.Text(prompt), blob(img))
	if err != nil {
		return models.SentimentPayload{}, err
	}
	return ParseSentiment(reply), nil
}

// GenerateImage is not available on the Gemini text models
func (g *GeminiEngine) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return "", ErrImageGenerationUnsupported
}

func (g *GeminiEngine) generate(ctx context.Context, model string, parts ...genai.Part) (string, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.APIKey))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(strings.TrimSpace(model))
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			logger.WithError(err).WithFields(logrus.Fields{
				"model":   model,
				"attempt": attempt,
			}).Warn("Gemini request failed")

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
			continue
		}

		txt := firstText(resp)
		if txt == "" {
			return "", fmt.Errorf("gemini: empty response")
		}
		return txt, nil
	}
	return "", fmt.Errorf("gemini: %w", lastErr)
}

func blob(img Image) genai.Part {
	return &genai.Blob{MIMEType: img.MIMEType, Data: img.Data}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
