package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/wellscreen/internal/domain/model"
	"github.com/okian/wellscreen/internal/domain/types"
)

const (
	headerSubjectID      = "X-Subject-ID"
	headerIdempotencyKey = "Idempotency-Key"
)

// Client talks to the wellscreen HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Health checks that the service answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: healthz returned %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

// Submit posts one request and decodes the receipt.
func (c *Client) Submit(ctx context.Context, req Request) (types.Receipt, error) {
	body, err := json.Marshal(req.Submission)
	if err != nil {
		return types.Receipt{}, fmt.Errorf("marshal submission: %w", err)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if req.IdempotencyKey != "" {
		headers[headerIdempotencyKey] = req.IdempotencyKey
	}
	if req.SubjectID != "" {
		headers[headerSubjectID] = req.SubjectID
	}

	resp, err := c.do(ctx, http.MethodPost, "/screenings", bytes.NewReader(body), headers)
	if err != nil {
		return types.Receipt{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return types.Receipt{}, statusError(resp)
	}

	var receipt types.Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return types.Receipt{}, fmt.Errorf("decode receipt: %w", err)
	}
	return receipt, nil
}

// Fetch reads a stored record back.
func (c *Client) Fetch(ctx context.Context, id string) (model.Record, error) {
	resp, err := c.do(ctx, http.MethodGet, "/screenings/"+id, nil, nil)
	if err != nil {
		return model.Record{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Record{}, statusError(resp)
	}

	var out struct {
		Doc model.Record `json:"doc"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.Record{}, fmt.Errorf("decode record: %w", err)
	}
	return out.Doc, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// statusError drains resp and reports its status and error body.
func statusError(resp *http.Response) error {
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if json.Unmarshal(raw, &e) == nil && e.Code != "" {
		return fmt.Errorf("%w: %d %s: %s", ErrUnexpectedStatus, resp.StatusCode, e.Code, e.Message)
	}
	return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
}
