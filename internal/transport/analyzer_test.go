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
	"testing"
	"time"

	"go-vision-console/internal/client"
	"go-vision-console/internal/config"
	"go-vision-console/internal/engine"
	"go-vision-console/internal/service"
	"go-vision-console/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine answers every query with fixed text run through the real parsers
type fakeEngine struct{}

func (fakeEngine) Name() string { return "fake" }

func (fakeEngine) Describe(ctx context.Context, prompt string, img engine.Image) (string, error) {
	return "Prompt: " + prompt + "\n\nA cat on a mat.", nil
}

func (fakeEngine) Classify(ctx context.Context, img engine.Image) (map[string]float64, error) {
	return engine.ParseClassifications("Cat: 90%\nDog: 30%"), nil
}

func (fakeEngine) Detect(ctx context.Context, img engine.Image) ([]models.Detection, string, error) {
	objects, summary := engine.ParseDetections("Cat: 95%, center")
	return objects, summary, nil
}

func (fakeEngine) ExtractText(ctx context.Context, img engine.Image) (models.TextExtractionPayload, error) {
	return engine.ParseExtractedText("STOP"), nil
}

func (fakeEngine) Sentiment(ctx context.Context, text string, img engine.Image) (models.SentimentPayload, error) {
	return engine.ParseSentiment("POSITIVE 80%"), nil
}

func (fakeEngine) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return "", engine.ErrImageGenerationUnsupported
}

func newAnalyzerServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{MaxRequestBodySize: 1 << 20, BackendTimeout: 10 * time.Second}
	server := httptest.NewServer(NewAnalyzerHandler(service.NewImageAnalysisService(fakeEngine{}, nil), cfg))
	t.Cleanup(server.Close)
	return server
}

func pngStaged(t *testing.T) *models.StagedImage {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return &models.StagedImage{
		Filename: "cat.png",
		File:     models.ImageFile{Name: "cat.png", ContentType: "image/png", Data: buf.Bytes()},
	}
}

// The console client and the analyzer handler must agree on the wire format
func TestAnalyzer_RoundTripThroughClient(t *testing.T) {
	server := newAnalyzerServer(t)
	c := client.NewHTTPAnalysisClient(server.URL+"/analyze", 5*time.Second)
	img := pngStaged(t)

	tests := []struct {
		qt   models.QueryType
		want models.Payload
	}{
		{models.QueryGeneral, models.GeneralPayload{Text: "Prompt: hello\n\nA cat on a mat."}},
		{models.QueryClassification, models.ClassificationPayload{Scores: map[string]float64{"Cat": 0.9, "Dog": 0.3}}},
		{models.QueryObjectDetection, models.DetectionPayload{Objects: []models.Detection{{Class: "Cat", Confidence: 0.95}}, Summary: "The image is a Cat."}},
		{models.QueryTextExtraction, models.TextExtractionPayload{Printed: "STOP"}},
		{models.QuerySentiment, models.SentimentPayload{Sentiment: "POSITIVE", Confidence: "80.00%"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.qt), func(t *testing.T) {
			resp, err := c.Analyze(context.Background(), models.AnalysisRequest{TextInput: "hello", QueryType: tt.qt, Image: img})
			require.NoError(t, err)
			require.False(t, resp.IsError(), resp.Err)
			assert.Equal(t, tt.qt, resp.Kind)
			assert.Equal(t, tt.want, resp.Payload)
		})
	}
}

func TestAnalyzer_ErrorsAreBackendReported(t *testing.T) {
	server := newAnalyzerServer(t)
	c := client.NewHTTPAnalysisClient(server.URL+"/analyze", 5*time.Second)

	tests := []struct {
		name    string
		req     models.AnalysisRequest
		wantErr string
	}{
		{"missing image", models.AnalysisRequest{QueryType: models.QueryGeneral}, "Invalid or missing image file"},
		{"unknown type", models.AnalysisRequest{QueryType: "palette", Image: pngStaged(t)}, "Invalid query type"},
		{"text to image without text", models.AnalysisRequest{QueryType: models.QueryTextToImage}, "Input text is required for image generation"},
		{"engine failure", models.AnalysisRequest{QueryType: models.QueryTextToImage, TextInput: "a fox"},
			"Analysis failed: " + engine.ErrImageGenerationUnsupported.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := c.Analyze(context.Background(), tt.req)
			require.NoError(t, err)
			assert.True(t, resp.IsError())
			assert.Equal(t, tt.wantErr, resp.Err)
		})
	}
}

func TestAnalyzer_StatusCodes(t *testing.T) {
	server := newAnalyzerServer(t)

	post := func(t *testing.T, fields map[string]string) (int, models.ErrorResponse) {
		t.Helper()
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		for k, v := range fields {
			require.NoError(t, mw.WriteField(k, v))
		}
		require.NoError(t, mw.Close())

		resp, err := http.Post(server.URL+"/analyze", mw.FormDataContentType(), &body)
		require.NoError(t, err)
		defer resp.Body.Close()

		var out models.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp.StatusCode, out
	}

	code, out := post(t, map[string]string{"query_type": "general"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid or missing image file", out.Error)

	code, out = post(t, map[string]string{"query_type": "text_to_image", "input": "fox"})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, out.Error, "Analysis failed: ")

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "fake", health["engine"])
}
