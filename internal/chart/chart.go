package chart

import (
	"errors"
	"fmt"
	"io"

	"go-vision-console/internal/render"
	"go-vision-console/pkg/models"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	defaultWidth  = 640
	defaultHeight = 400
	barWidth      = 40
	maxBars       = 10
)

// ErrNoData is returned when a payload has nothing to plot
var ErrNoData = errors.New("no confidences to chart")

// tierColors follows the badge palette used in rendered results
var tierColors = map[string]drawing.Color{
	render.TierSuccess: drawing.ColorFromHex("198754"),
	render.TierPrimary: drawing.ColorFromHex("0d6efd"),
	render.TierWarning: drawing.ColorFromHex("ffc107"),
	render.TierDanger:  drawing.ColorFromHex("dc3545"),
}

// Bar is one labelled confidence in [0,1]
type Bar struct {
	Label      string
	Confidence float64
}

// BarsFor extracts chartable bars from detection and classification payloads,
// ordered the same way the results list them.
func BarsFor(payload models.Payload) ([]Bar, error) {
	var bars []Bar
	switch p := payload.(type) {
	case models.DetectionPayload:
		for _, d := range render.SortDetections(p.Objects) {
			bars = append(bars, Bar{Label: d.Class, Confidence: d.Confidence})
		}
	case models.ClassificationPayload:
		for _, s := range render.SortScores(p.Scores) {
			bars = append(bars, Bar{Label: s.Label, Confidence: s.Score})
		}
	case nil:
		return nil, ErrNoData
	default:
		return nil, fmt.Errorf("%s results have no chart", p.Kind())
	}

	if len(bars) == 0 {
		return nil, ErrNoData
	}
	if len(bars) > maxBars {
		bars = bars[:maxBars]
	}
	return bars, nil
}

// RenderPNG draws bars as a percentage bar chart
func RenderPNG(w io.Writer, title string, bars []Bar) error {
	if len(bars) == 0 {
		return ErrNoData
	}

	values := make([]gochart.Value, 0, len(bars))
	for _, b := range bars {
		values = append(values, gochart.Value{
			Label: b.Label,
			Value: b.Confidence * 100,
			Style: gochart.Style{
				FillColor:   tierColors[render.Tier(b.Confidence)],
				StrokeColor: tierColors[render.Tier(b.Confidence)],
				StrokeWidth: 1,
			},
		})
	}

	bc := gochart.BarChart{
		Title:    title,
		Width:    defaultWidth,
		Height:   defaultHeight,
		BarWidth: barWidth,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		YAxis: gochart.YAxis{
			Name:  "Confidence (%)",
			Range: &gochart.ContinuousRange{Min: 0, Max: 100},
		},
		Bars: values,
	}

	if err := bc.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// Result renders the chart for a rendered result
func Result(w io.Writer, result render.Result) error {
	bars, err := BarsFor(result.Payload)
	if err != nil {
		return err
	}
	title := result.Filename
	if title == "" {
		title = render.TextOnlySource
	}
	return RenderPNG(w, fmt.Sprintf("%s: %s", result.Kind.Label(), title), bars)
}
