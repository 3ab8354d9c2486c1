// Package client calls the aimpact prediction endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/f3rmion/aimpact/internal/predict"
)

const (
	// DefaultEndpoint is where `aimpact serve` listens by default.
	DefaultEndpoint = "http://127.0.0.1:5000"
	defaultTimeout  = 30 * time.Second
	maxResponse     = 1 << 20
)

// UnknownError is reported when a failed response carries no message.
const UnknownError = "Unknown error"

// TransportError means no usable answer arrived: the request failed, or the
// body was not a prediction response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PredictionError is a response with success=false.
type PredictionError struct {
	Status  int
	Message string
}

func (e *PredictionError) Error() string {
	return e.Message
}

// Client talks to a prediction server.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a client for endpoint. A zero timeout uses 30s.
func New(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Predict posts in and returns the result for the panel.
func (c *Client) Predict(ctx context.Context, in predict.Input) (predict.Result, error) {
	body, err := json.Marshal(in.Request())
	if err != nil {
		return predict.Result{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/predict", bytes.NewReader(body))
	if err != nil {
		return predict.Result{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp predict.Response
	status, err := c.do(req, &resp)
	if err != nil {
		return predict.Result{}, err
	}

	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = UnknownError
		}
		return predict.Result{}, &PredictionError{Status: status, Message: msg}
	}
	if resp.Predictions == nil {
		return predict.Result{}, &TransportError{Op: "reading response", Err: fmt.Errorf("no predictions in response")}
	}
	return resp.Predictions.Result(), nil
}

// Options fetches the categories the model knows.
func (c *Client) Options(ctx context.Context) (predict.Options, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/options", nil)
	if err != nil {
		return predict.Options{}, fmt.Errorf("creating request: %w", err)
	}

	var raw json.RawMessage
	status, err := c.do(req, &raw)
	if err != nil {
		return predict.Options{}, err
	}

	if status != http.StatusOK {
		var failed predict.Response
		if err := json.Unmarshal(raw, &failed); err != nil || failed.Error == "" {
			failed.Error = UnknownError
		}
		return predict.Options{}, &PredictionError{Status: status, Message: failed.Error}
	}

	var opts predict.Options
	if err := json.Unmarshal(raw, &opts); err != nil {
		return predict.Options{}, &TransportError{Op: "reading options", Err: err}
	}
	return opts, nil
}

// do sends req and decodes the JSON body into v whatever the status.
func (c *Client) do(req *http.Request, v any) (int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &TransportError{Op: "making request", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return resp.StatusCode, &TransportError{Op: "reading response", Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return resp.StatusCode, &TransportError{
			Op:  "reading response",
			Err: fmt.Errorf("status %d: %w", resp.StatusCode, err),
		}
	}
	return resp.StatusCode, nil
}
