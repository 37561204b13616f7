// Package generation is the HTTP client for the QR code PDF generation service.
// It submits a CSV as a multipart upload and classifies the reply as a PDF
// payload, a structured service error, or a transport failure.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/qrgen/pkg/formatting"
)

// HeaderRequestID carries the client-generated request identifier.
const HeaderRequestID = "X-Request-ID"

// Request is the CSV submitted for generation.
type Request struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Response is a successful generation reply. Data is the raw PDF body and
// Disposition is the Content-Disposition header, possibly empty.
type Response struct {
	RequestID   string
	ContentType string
	Disposition string
	Data        []byte
}

// Client submits generation requests.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

type client struct {
	http        *http.Client
	endpoint    string
	field       string
	maxResponse int64
	logger      *slog.Logger
}

// New creates a Client for the configured endpoint. A nil httpClient uses a
// client with the configured timeout.
func New(cfg *Config, httpClient *http.Client, logger *slog.Logger) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.TimeoutDuration()}
	}

	return &client{
		http:        httpClient,
		endpoint:    cfg.Endpoint(),
		field:       cfg.FieldName,
		maxResponse: cfg.MaxResponseSizeBytes(),
		logger:      logger.With("system", "generation"),
	}
}

func (c *client) Generate(ctx context.Context, req Request) (*Response, error) {
	body, contentType, err := encodeMultipart(c.field, req)
	if err != nil {
		return nil, &TransportError{Op: "encode", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, &TransportError{Op: "request", Err: err}
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/pdf, application/json")
	httpReq.Header.Set(HeaderRequestID, requestID)

	c.logger.InfoContext(
		ctx, "submitting csv",
		"request_id", requestID,
		"filename", req.Filename,
		"size", formatting.FormatBytes(int64(len(req.Data)), 1),
	)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "post", Err: err}
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body, c.maxResponse)
	if err != nil {
		return nil, &TransportError{Op: "read", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		failure := decodeFailure(resp.StatusCode, data)
		c.logger.WarnContext(ctx, "generation failed", "request_id", requestID, "error", failure)
		return nil, failure
	}

	if len(data) == 0 {
		return nil, &TransportError{Op: "read", StatusCode: resp.StatusCode, Err: ErrEmptyResponse}
	}

	c.logger.InfoContext(
		ctx, "generation complete",
		"request_id", requestID,
		"status", resp.StatusCode,
		"size", formatting.FormatBytes(int64(len(data)), 1),
	)

	return &Response{
		RequestID:   requestID,
		ContentType: resp.Header.Get("Content-Type"),
		Disposition: resp.Header.Get("Content-Disposition"),
		Data:        data,
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(field string, req Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	contentType := req.ContentType
	if contentType == "" {
		contentType = "text/csv"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(
		`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field),
		quoteEscaper.Replace(req.Filename),
	))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create part: %w", err)
	}
	if _, err := part.Write(req.Data); err != nil {
		return nil, "", fmt.Errorf("write part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrResponseTooLarge
	}
	return data, nil
}

type failurePayload struct {
	Error string `json:"error"`
}

// decodeFailure prefers the service's own message; bodies without one are
// reported as transport failures.
func decodeFailure(status int, data []byte) error {
	var payload failurePayload
	if err := json.Unmarshal(data, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return &ServiceError{StatusCode: status, Message: payload.Error}
	}

	return &TransportError{
		Op:         "response",
		StatusCode: status,
		Err:        fmt.Errorf("%w: %d", ErrUnexpectedStatus, status),
	}
}
