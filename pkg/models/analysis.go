package models

import (
	"fmt"
	"strings"
)

// QueryType selects the analysis mode and the shape of the response payload
type QueryType string

const (
	QueryGeneral         QueryType = "general"
	QueryObjectDetection QueryType = "object_detection"
	QueryClassification  QueryType = "classification"
	QueryTextExtraction  QueryType = "text_extraction"
	QuerySentiment       QueryType = "sentiment"
	QueryTextToImage     QueryType = "text_to_image"
)

// QueryTypes lists every supported query type in display order
var QueryTypes = []QueryType{
	QueryGeneral,
	QueryObjectDetection,
	QueryClassification,
	QueryTextExtraction,
	QuerySentiment,
	QueryTextToImage,
}

// ParseQueryType converts user input into a QueryType
func ParseQueryType(value string) (QueryType, error) {
	qt := QueryType(strings.TrimSpace(value))
	if !qt.Valid() {
		return "", fmt.Errorf("unknown query type %q", value)
	}
	return qt, nil
}

// Valid reports whether q is one of the supported query types
func (q QueryType) Valid() bool {
	for _, known := range QueryTypes {
		if q == known {
			return true
		}
	}
	return false
}

// RequiresImage reports whether a submission of this type runs once per staged image
func (q QueryType) RequiresImage() bool {
	return q != QueryTextToImage
}

// Label returns the human readable name shown next to the selector
func (q QueryType) Label() string {
	switch q {
	case QueryGeneral:
		return "General Analysis"
	case QueryObjectDetection:
		return "Object Detection"
	case QueryClassification:
		return "Classification"
	case QueryTextExtraction:
		return "Text Extraction"
	case QuerySentiment:
		return "Sentiment"
	case QueryTextToImage:
		return "Text to Image"
	default:
		return string(q)
	}
}

// ImageFile is the raw upload as received from the drop zone or file picker
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file size in bytes
func (f ImageFile) Size() int64 {
	return int64(len(f.Data))
}

// StagedImage is an image waiting to be included in the next submission.
// Filename is the unique key inside an image store.
type StagedImage struct {
	Filename       string
	File           ImageFile
	PreviewDataURL string
	Width          int
	Height         int
}

// AnalysisRequest is one unit of work sent to the analysis backend
type AnalysisRequest struct {
	TextInput string
	QueryType QueryType
	Image     *StagedImage
}
