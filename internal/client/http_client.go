package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	apperrors "go-vision-console/internal/errors"
	"go-vision-console/pkg/models"
)

// maxResponseBytes bounds the backend JSON document; generated images arrive inline
const maxResponseBytes = 32 << 20

// AnalysisClient sends one unit of work to the analysis backend
type AnalysisClient interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResponse, error)
}

// HTTPAnalysisClient posts multipart forms to the backend analyze endpoint
type HTTPAnalysisClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPAnalysisClient creates a client for endpoint. A zero timeout leaves
// the deadline to the caller's context.
func NewHTTPAnalysisClient(endpoint string, timeout time.Duration) *HTTPAnalysisClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPAnalysisClient{
		endpoint: endpoint,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

// Analyze posts input, query_type and the optional image. A backend-reported
// failure comes back as a response with Err set; transport and decoding
// failures come back as errors.
func (h *HTTPAnalysisClient) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResponse, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, body)
	if err != nil {
		return nil, apperrors.NewInternalError("invalid backend URL", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "Go-Vision-Console/1.0")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, apperrors.NewTimeoutError("analysis backend timeout", err)
		}
		return nil, apperrors.NewNetworkError("failed to reach analysis backend", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read analysis response", err)
	}

	result, err := models.DecodeAnalysisResponse(data)
	if err != nil {
		return nil, apperrors.NewProcessingError(
			fmt.Sprintf("malformed analysis response (status %d)", resp.StatusCode), err)
	}

	if resp.StatusCode != http.StatusOK && !result.IsError() {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("unexpected backend status %d", resp.StatusCode), nil)
	}

	if result.Kind == "" {
		result.Kind = req.QueryType
	}
	return result, nil
}

func encodeForm(req models.AnalysisRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("input", req.TextInput); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("query_type", string(req.QueryType)); err != nil {
		return nil, "", err
	}

	if req.Image != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="image"; filename=%q`, req.Image.Filename))
		ct := req.Image.File.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		header.Set("Content-Type", ct)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(req.Image.File.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
