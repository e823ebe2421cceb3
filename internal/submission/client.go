package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cvbuilder/internal/payload"
)

// GeneratePath is the generation endpoint relative to the backend base URL.
const GeneratePath = "/api/cv/generate"

// ErrUnexpectedStatus is returned when the service answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Response is the success body of the generation endpoint. Every field is optional.
type Response struct {
	HTML      string `json:"html,omitempty"`
	PDFBase64 string `json:"pdf_base64,omitempty"`
	Filename  string `json:"filename,omitempty"`
}

// Generator sends a payload to the generation service.
type Generator interface {
	Generate(ctx context.Context, p payload.Payload) (*Response, error)
}

// Client calls the generation service over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a client for baseURL. The HTTP client has no timeout: a generation
// takes as long as it takes and the caller's context is the only bound.
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: &http.Client{}}
}

// Generate posts p as JSON and decodes the response. No retry is attempted.
func (c *Client) Generate(ctx context.Context, p payload.Payload) (*Response, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+GeneratePath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
