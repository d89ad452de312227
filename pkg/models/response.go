package models

// Payload is the kind-specific body of a successful analysis response
type Payload interface {
	Kind() QueryType
}

// GeneralPayload carries a free-text narrative
type GeneralPayload struct {
	Text string
}

func (GeneralPayload) Kind() QueryType { return QueryGeneral }

// Detection is a single detected object
type Detection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// DetectionPayload carries detected objects in backend order
type DetectionPayload struct {
	Objects []Detection
	Summary string
}

func (DetectionPayload) Kind() QueryType { return QueryObjectDetection }

// ClassificationPayload maps labels to scores in [0,1]
type ClassificationPayload struct {
	Scores map[string]float64
}

func (ClassificationPayload) Kind() QueryType { return QueryClassification }

// TextExtractionPayload carries optional printed and handwritten text
type TextExtractionPayload struct {
	Printed     string
	Handwritten string
}

func (TextExtractionPayload) Kind() QueryType { return QueryTextExtraction }

// Sentiment labels reported by the backend. Any other value is rendered as "other".
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// SentimentPayload carries the sentiment label and an opaque confidence value
type SentimentPayload struct {
	Sentiment  string
	Confidence string
}

func (SentimentPayload) Kind() QueryType { return QuerySentiment }

// GeneratedImagePayload references a generated image
type GeneratedImagePayload struct {
	ImageURL string
}

func (GeneratedImagePayload) Kind() QueryType { return QueryTextToImage }

// AnalysisResponse is the tagged union returned by the backend.
// Either Err is set or the response is a success whose Payload may be nil
// when the backend sent no data for the section.
type AnalysisResponse struct {
	Kind    QueryType
	Err     string
	Payload Payload
}

// NewErrorResponse builds a backend-reported failure
func NewErrorResponse(kind QueryType, message string) *AnalysisResponse {
	if message == "" {
		message = "unknown error"
	}
	return &AnalysisResponse{Kind: kind, Err: message}
}

// NewResponse builds a successful response for the payload's kind
func NewResponse(payload Payload) *AnalysisResponse {
	return &AnalysisResponse{Kind: payload.Kind(), Payload: payload}
}

// IsError reports whether the backend reported an error for this unit
func (r *AnalysisResponse) IsError() bool {
	return r.Err != ""
}
