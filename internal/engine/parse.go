package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go-vision-console/pkg/models"
)

const (
	maxClassifications       = 5
	defaultDetectionScore    = 0.9
	noObjectsSummary         = "No objects detected."
	noSentimentDetected      = "No sentiment detected."
	detectionSummaryTemplate = "The image is a %s."
)

var (
	percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	numberPattern  = regexp.MustCompile(`\d+(?:\.\d+)?`)
	bulletPattern  = regexp.MustCompile(`^\s*(?:[-*•]+|\d+[.)])\s*`)
)

// ParseClassifications reads "Label: NN%" lines, keeping the first five that parse
func ParseClassifications(text string) map[string]float64 {
	scores := make(map[string]float64)
	for _, line := range lines(text) {
		if len(scores) == maxClassifications {
			break
		}
		idx := strings.LastIndex(line, ":")
		if idx < 0 {
			continue
		}
		label := cleanLabel(line[:idx])
		value := numberPattern.FindString(line[idx+1:])
		if label == "" || value == "" {
			continue
		}
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		scores[label] = clamp(n / 100)
	}
	return scores
}

// ParseDetections reads "Class: details" lines. A percentage in the details is
// the confidence, otherwise the detection scores 0.9.
func ParseDetections(text string) ([]models.Detection, string) {
	var detections []models.Detection
	for _, line := range lines(text) {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		class := cleanLabel(line[:idx])
		if class == "" {
			continue
		}
		confidence := defaultDetectionScore
		if m := percentPattern.FindStringSubmatch(line[idx+1:]); m != nil {
			if n, err := strconv.ParseFloat(m[1], 64); err == nil {
				confidence = clamp(n / 100)
			}
		}
		detections = append(detections, models.Detection{Class: class, Confidence: confidence})
	}

	if len(detections) == 0 {
		return nil, noObjectsSummary
	}
	classes := make([]string, len(detections))
	for i, d := range detections {
		classes[i] = d.Class
	}
	return detections, fmt.Sprintf(detectionSummaryTemplate, strings.Join(classes, ", "))
}

// ParseSentiment reads the label and percentage from the first line
func ParseSentiment(text string) models.SentimentPayload {
	all := lines(text)
	if len(all) == 0 {
		return models.SentimentPayload{Sentiment: noSentimentDetected, Confidence: "0"}
	}
	first := strings.ToUpper(all[0])

	sentiment := models.SentimentNeutral
	switch {
	case strings.Contains(first, models.SentimentPositive):
		sentiment = models.SentimentPositive
	case strings.Contains(first, models.SentimentNegative):
		sentiment = models.SentimentNegative
	}

	confidence := 0.0
	if m := percentPattern.FindStringSubmatch(first); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			confidence = clamp(n / 100)
		}
	}

	if sentiment == models.SentimentNeutral && confidence == 0 {
		return models.SentimentPayload{Sentiment: noSentimentDetected, Confidence: "0"}
	}
	return models.SentimentPayload{
		Sentiment:  sentiment,
		Confidence: fmt.Sprintf("%.2f%%", confidence*100),
	}
}

// ParseExtractedText treats the whole reply as printed text
func ParseExtractedText(text string) models.TextExtractionPayload {
	return models.TextExtractionPayload{Printed: strings.TrimSpace(stripCodeFences(text))}
}

func lines(text string) []string {
	var out []string
	for _, line := range strings.Split(stripCodeFences(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func cleanLabel(s string) string {
	s = bulletPattern.ReplaceAllString(s, "")
	return strings.Trim(strings.TrimSpace(s), "*_`\"")
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
