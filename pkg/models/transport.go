package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorResponse is the body of every failed HTTP call
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// wireResponse mirrors the JSON document exchanged with the analysis backend
type wireResponse struct {
	QueryType string        `json:"query_type,omitempty"`
	Analysis  *wireAnalysis `json:"analysis,omitempty"`
	Error     string        `json:"error,omitempty"`
}

type wireAnalysis struct {
	GeminiResponse string              `json:"gemini_response,omitempty"`
	Objects        []Detection         `json:"objects,omitempty"`
	Summary        string              `json:"summary,omitempty"`
	Classification *wireClassification `json:"classification,omitempty"`
	ExtractedText  json.RawMessage     `json:"extracted_text,omitempty"`
	Sentiment      *wireSentiment      `json:"sentiment,omitempty"`
	ImageURL       string              `json:"image_url,omitempty"`
	GeneratedImage json.RawMessage     `json:"generated_image,omitempty"`
}

type wireClassification struct {
	Predictions json.RawMessage `json:"predictions,omitempty"`
}

type wirePrediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type wireExtractedText struct {
	PrintedText     string `json:"printed_text,omitempty"`
	HandwrittenText string `json:"handwritten_text,omitempty"`
}

type wireSentiment struct {
	Sentiment  string          `json:"sentiment"`
	Confidence json.RawMessage `json:"confidence,omitempty"`
}

type wireGeneratedImage struct {
	ImageURL string `json:"image_url"`
}

// DecodeAnalysisResponse parses a backend JSON document
func DecodeAnalysisResponse(data []byte) (*AnalysisResponse, error) {
	var resp AnalysisResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UnmarshalJSON decodes the backend wire format into the tagged union
func (r *AnalysisResponse) UnmarshalJSON(data []byte) error {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode analysis response: %w", err)
	}

	kind := QueryType(w.QueryType)
	if w.Error != "" {
		*r = *NewErrorResponse(kind, w.Error)
		return nil
	}

	*r = AnalysisResponse{Kind: kind}
	if w.Analysis == nil {
		return nil
	}

	payload, err := w.Analysis.payload(kind)
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", kind, err)
	}
	r.Payload = payload
	return nil
}

// payload extracts the section for kind, returning nil when it is absent or empty
func (a *wireAnalysis) payload(kind QueryType) (Payload, error) {
	switch kind {
	case QueryGeneral:
		if strings.TrimSpace(a.GeminiResponse) == "" {
			return nil, nil
		}
		return GeneralPayload{Text: a.GeminiResponse}, nil

	case QueryObjectDetection:
		if len(a.Objects) == 0 {
			return nil, nil
		}
		return DetectionPayload{Objects: a.Objects, Summary: a.Summary}, nil

	case QueryClassification:
		if a.Classification == nil || isNull(a.Classification.Predictions) {
			return nil, nil
		}
		scores, err := decodePredictions(a.Classification.Predictions)
		if err != nil {
			return nil, err
		}
		if len(scores) == 0 {
			return nil, nil
		}
		return ClassificationPayload{Scores: scores}, nil

	case QueryTextExtraction:
		if isNull(a.ExtractedText) {
			return nil, nil
		}
		text, err := decodeExtractedText(a.ExtractedText)
		if err != nil {
			return nil, err
		}
		if text.Printed == "" && text.Handwritten == "" {
			return nil, nil
		}
		return text, nil

	case QuerySentiment:
		if a.Sentiment == nil || a.Sentiment.Sentiment == "" {
			return nil, nil
		}
		return SentimentPayload{
			Sentiment:  a.Sentiment.Sentiment,
			Confidence: rawValueString(a.Sentiment.Confidence),
		}, nil

	case QueryTextToImage:
		url := a.ImageURL
		if url == "" && !isNull(a.GeneratedImage) {
			var err error
			if url, err = decodeGeneratedImage(a.GeneratedImage); err != nil {
				return nil, err
			}
		}
		if url == "" {
			return nil, nil
		}
		return GeneratedImagePayload{ImageURL: url}, nil
	}

	return nil, nil
}

// decodePredictions accepts either {label: score} or [{label, confidence}]
func decodePredictions(raw json.RawMessage) (map[string]float64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []wirePrediction
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		scores := make(map[string]float64, len(list))
		for _, p := range list {
			scores[p.Label] = p.Confidence
		}
		return scores, nil
	}

	var scores map[string]float64
	if err := json.Unmarshal(trimmed, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// decodeExtractedText accepts a bare string (printed text) or the two-field object
func decodeExtractedText(raw json.RawMessage) (TextExtractionPayload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var printed string
		if err := json.Unmarshal(trimmed, &printed); err != nil {
			return TextExtractionPayload{}, err
		}
		return TextExtractionPayload{Printed: printed}, nil
	}

	var w wireExtractedText
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return TextExtractionPayload{}, err
	}
	return TextExtractionPayload{Printed: w.PrintedText, Handwritten: w.HandwrittenText}, nil
}

func decodeGeneratedImage(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var url string
		err := json.Unmarshal(trimmed, &url)
		return url, err
	}
	var w wireGeneratedImage
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return "", err
	}
	return w.ImageURL, nil
}

// rawValueString renders an opaque JSON scalar for display
func rawValueString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if isNull(trimmed) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// MarshalJSON encodes the tagged union in the backend wire format
func (r AnalysisResponse) MarshalJSON() ([]byte, error) {
	if r.Err != "" {
		return json.Marshal(wireResponse{QueryType: string(r.Kind), Error: r.Err})
	}

	a := &wireAnalysis{}
	switch p := r.Payload.(type) {
	case GeneralPayload:
		a.GeminiResponse = p.Text
	case DetectionPayload:
		a.Objects = p.Objects
		a.Summary = p.Summary
	case ClassificationPayload:
		raw, err := json.Marshal(p.Scores)
		if err != nil {
			return nil, err
		}
		a.Classification = &wireClassification{Predictions: raw}
	case TextExtractionPayload:
		raw, err := json.Marshal(wireExtractedText{PrintedText: p.Printed, HandwrittenText: p.Handwritten})
		if err != nil {
			return nil, err
		}
		a.ExtractedText = raw
	case SentimentPayload:
		raw, err := json.Marshal(p.Confidence)
		if err != nil {
			return nil, err
		}
		a.Sentiment = &wireSentiment{Sentiment: p.Sentiment, Confidence: raw}
	case GeneratedImagePayload:
		a.ImageURL = p.ImageURL
	}

	return json.Marshal(wireResponse{QueryType: string(r.Kind), Analysis: a})
}
