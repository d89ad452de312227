package chart

import (
	"bytes"
	"image/png"
	"testing"

	"go-vision-console/internal/render"
	"go-vision-console/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarsFor(t *testing.T) {
	bars, err := BarsFor(models.ClassificationPayload{Scores: map[string]float64{"A": 0.3, "B": 0.9}})
	require.NoError(t, err)
	assert.Equal(t, []Bar{{"B", 0.9}, {"A", 0.3}}, bars)

	bars, err = BarsFor(models.DetectionPayload{Objects: []models.Detection{
		{Class: "dog", Confidence: 0.5},
		{Class: "cat", Confidence: 0.9},
	}})
	require.NoError(t, err)
	assert.Equal(t, "cat", bars[0].Label)

	_, err = BarsFor(models.GeneralPayload{Text: "hi"})
	assert.Error(t, err)

	_, err = BarsFor(nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = BarsFor(models.DetectionPayload{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestBarsFor_CapsBars(t *testing.T) {
	scores := map[string]float64{}
	for _, l := range "abcdefghijklmn" {
		scores[string(l)] = 0.5
	}
	bars, err := BarsFor(models.ClassificationPayload{Scores: scores})
	require.NoError(t, err)
	assert.Len(t, bars, maxBars)
}

func TestResult_RendersPNG(t *testing.T) {
	var buf bytes.Buffer
	err := Result(&buf, render.Result{
		Filename: "pets.png",
		Kind:     models.QueryObjectDetection,
		Payload: models.DetectionPayload{Objects: []models.Detection{
			{Class: "cat", Confidence: 0.9},
			{Class: "dog", Confidence: 0.5},
		}},
	})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, defaultWidth, img.Bounds().Dx())
	assert.Equal(t, defaultHeight, img.Bounds().Dy())
}

func TestRenderPNG_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, RenderPNG(&buf, "empty", nil), ErrNoData)
	assert.Zero(t, buf.Len())
}
