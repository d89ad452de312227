package render

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"go-vision-console/pkg/models"
)

// TextOnlySource is the heading used when a result has no source image
const TextOnlySource = "Generated from text"

// Badge tiers shared by detections and classifications
const (
	TierSuccess = "success"
	TierPrimary = "primary"
	TierWarning = "warning"
	TierDanger  = "danger"
)

// Tier maps a confidence in [0,1] to its badge tier
func Tier(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return TierSuccess
	case confidence >= 0.6:
		return TierPrimary
	case confidence >= 0.4:
		return TierWarning
	default:
		return TierDanger
	}
}

// Percent formats a confidence in [0,1] as a one decimal percentage
func Percent(confidence float64) string {
	return fmt.Sprintf("%.1f%%", confidence*100)
}

// SentimentTier maps a sentiment label to its badge tier
func SentimentTier(sentiment string) string {
	switch sentiment {
	case models.SentimentPositive:
		return TierSuccess
	case models.SentimentNegative:
		return TierDanger
	case models.SentimentNeutral:
		return "secondary"
	default:
		return TierPrimary
	}
}

// Renderer turns analysis responses into HTML fragments and appends them to a results area
type Renderer struct {
	area *ResultsArea
}

func NewRenderer(area *ResultsArea) *Renderer {
	if area == nil {
		area = NewResultsArea()
	}
	return &Renderer{area: area}
}

// Area returns the results area the renderer appends to
func (r *Renderer) Area() *ResultsArea {
	return r.area
}

// Render appends one fragment for resp. An empty filename means a text-only run.
// Unknown kinds and missing payloads produce the heading alone.
func (r *Renderer) Render(resp *models.AnalysisResponse, filename string) (Result, error) {
	return r.area.appendWith(func(index int) (Result, error) {
		view := fragmentView{Heading: filename}
		if view.Heading == "" {
			view.Heading = TextOnlySource
		}

		var kind models.QueryType
		if resp != nil {
			kind = resp.Kind
			view.Kind = string(kind)
			if !resp.IsError() && resp.Payload != nil {
				view.Body = bodyFor(resp.Payload)
				if view.Body != nil && hasChart(resp.Payload) {
					view.Body.ChartURL = ChartURL(index)
				}
			}
		}

		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, "result", view); err != nil {
			return Result{}, fmt.Errorf("render %s result: %w", kind, err)
		}

		result := Result{
			Index:    index,
			Filename: filename,
			Kind:     kind,
			HTML:     template.HTML(buf.String()),
		}
		if resp != nil {
			result.Payload = resp.Payload
		}
		if view.Body != nil {
			result.ChartURL = view.Body.ChartURL
		}
		return result, nil
	})
}

// ChartURL is the console route serving the chart of the result at index
func ChartURL(index int) string {
	return fmt.Sprintf("/api/results/%d/chart.png", index)
}

type fragmentView struct {
	Heading string
	Kind    string
	Body    *bodyView
}

type bodyView struct {
	Kind     string
	ChartURL string

	Rows []rowView

	Printed     string
	Handwritten string

	Label      string
	Badge      string
	Confidence string

	Paragraphs []string

	Src interface{}
}

type rowView struct {
	Label   string
	Percent string
	Badge   string
	Width   template.CSS
}

func bodyFor(payload models.Payload) *bodyView {
	switch p := payload.(type) {
	case models.DetectionPayload:
		if len(p.Objects) == 0 {
			return nil
		}
		return &bodyView{Kind: string(p.Kind()), Rows: detectionRows(p.Objects)}

	case models.ClassificationPayload:
		if len(p.Scores) == 0 {
			return nil
		}
		return &bodyView{Kind: string(p.Kind()), Rows: classificationRows(p.Scores)}

	case models.TextExtractionPayload:
		if p.Printed == "" && p.Handwritten == "" {
			return nil
		}
		return &bodyView{Kind: string(p.Kind()), Printed: p.Printed, Handwritten: p.Handwritten}

	case models.SentimentPayload:
		if p.Sentiment == "" {
			return nil
		}
		return &bodyView{
			Kind:       string(p.Kind()),
			Label:      p.Sentiment,
			Badge:      "bg-" + SentimentTier(p.Sentiment),
			Confidence: p.Confidence,
		}

	case models.GeneralPayload:
		paragraphs := Paragraphs(p.Text)
		if len(paragraphs) == 0 {
			return nil
		}
		return &bodyView{Kind: string(p.Kind()), Paragraphs: paragraphs}

	case models.GeneratedImagePayload:
		if p.ImageURL == "" {
			return nil
		}
		return &bodyView{Kind: string(p.Kind()), Src: imageSource(p.ImageURL)}
	}
	return nil
}

func detectionRows(objects []models.Detection) []rowView {
	sorted := SortDetections(objects)
	rows := make([]rowView, 0, len(sorted))
	for _, d := range sorted {
		rows = append(rows, rowView{
			Label:   d.Class,
			Percent: Percent(d.Confidence),
			Badge:   "bg-" + Tier(d.Confidence),
		})
	}
	return rows
}

func classificationRows(scores map[string]float64) []rowView {
	sorted := SortScores(scores)
	rows := make([]rowView, 0, len(sorted))
	for _, s := range sorted {
		rows = append(rows, rowView{
			Label:   s.Label,
			Percent: Percent(s.Score),
			Badge:   "bg-" + Tier(s.Score),
			Width:   template.CSS(fmt.Sprintf("width: %.1f%%", s.Score*100)),
		})
	}
	return rows
}

// SortDetections returns a copy of objects ordered by confidence, highest first.
// Equal confidences keep backend order.
func SortDetections(objects []models.Detection) []models.Detection {
	sorted := make([]models.Detection, len(objects))
	copy(sorted, objects)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	return sorted
}

// Score is one classification label with its score
type Score struct {
	Label string
	Score float64
}

// SortScores orders a label to score map by score, highest first, then by label
func SortScores(scores map[string]float64) []Score {
	sorted := make([]Score, 0, len(scores))
	for label, score := range scores {
		sorted = append(sorted, Score{Label: label, Score: score})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Label < sorted[j].Label
	})
	return sorted
}

// Paragraphs splits narrative text into trimmed, non-empty lines
func Paragraphs(text string) []string {
	var paragraphs []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return paragraphs
}

// imageSource trusts inline image data URLs; anything else goes through the
// template's URL sanitizer.
func imageSource(ref string) interface{} {
	if strings.HasPrefix(ref, "data:image/") {
		return template.URL(ref)
	}
	return ref
}

func hasChart(payload models.Payload) bool {
	switch payload.(type) {
	case models.DetectionPayload, models.ClassificationPayload:
		return true
	}
	return false
}
