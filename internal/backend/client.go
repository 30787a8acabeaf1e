// Package backend is the HTTP client for the external backend service that
// performs the authenticated business logic (destiny calculation,
// accounts, transactions). Responses are normalized by status code so
// handlers only deal with a Result or an *Error.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseBytes caps how much of a backend response body is read.
const maxResponseBytes = 4 << 20

// Call describes one backend request.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	// Token is forwarded as "Authorization: Bearer <Token>" when set.
	Token string

	// Language and TimeZone are forwarded for localized backend messages.
	Language string
	TimeZone string
}

// With returns a copy of c targeting method and path with body. Token,
// Language, and TimeZone carry over.
func (c Call) With(method, path string, body any) Call {
	c.Method = method
	c.Path = path
	c.Body = body
	c.Query = nil
	return c
}

// Result is a normalized 2xx response.
type Result struct {
	Status  int
	Message string
	Data    json.RawMessage
}

// Decode unmarshals Data into out. An empty Data leaves out untouched.
func (r *Result) Decode(out any) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Data, out); err != nil {
		return fmt.Errorf("decoding backend data: %w", err)
	}
	return nil
}

// Error is a normalized non-2xx response or transport failure. Message is
// the backend's text for 400 responses and empty otherwise so callers
// fall back to a generic translated message.
type Error struct {
	Status  int
	Message string
	Errors  map[string]string

	// Code, MetaData, and RawMessage are passed through from the backend
	// body for client-side special-casing (e.g. insufficient balance).
	Code       string
	MetaData   any
	RawMessage string

	// Err is set for transport-level failures.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend: %v", e.Err)
	}
	return fmt.Sprintf("backend: status %d: %s %s", e.Status, e.Code, e.RawMessage)
}

// Unwrap returns the transport error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var be *Error
	ok := errors.As(err, &be)
	return be, ok
}

// responseBody is the backend's JSON body shape.
type responseBody struct {
	Message   string            `json:"message"`
	Data      json.RawMessage   `json:"data"`
	Errors    map[string]string `json:"errors"`
	ErrorCode string            `json:"errorCode"`
	MetaData  any               `json:"metaData"`
}

// Service is the contract handlers depend on.
type Service interface {
	Do(ctx context.Context, call Call) (*Result, error)
}

// Client implements Service over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a backend client for baseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Do executes call and normalizes the response.
func (c *Client) Do(ctx context.Context, call Call) (*Result, error) {
	req, err := c.newRequest(ctx, call)
	if err != nil {
		return nil, &Error{Status: http.StatusInternalServerError, Err: err}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("backend request failed",
			slog.String("method", call.Method),
			slog.String("path", call.Path),
			slog.Any("error", err),
		)
		return nil, &Error{Status: http.StatusBadGateway, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &Error{Status: http.StatusBadGateway, Err: fmt.Errorf("reading body: %w", err)}
	}

	slog.Debug("backend request",
		slog.String("method", call.Method),
		slog.String("path", call.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)

	return normalize(resp.StatusCode, raw)
}

func (c *Client) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	u := c.baseURL + call.Path
	if len(call.Query) > 0 {
		u += "?" + call.Query.Encode()
	}

	var body io.Reader
	if call.Body != nil {
		b, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	method := call.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	if call.Token != "" {
		req.Header.Set("Authorization", "Bearer "+call.Token)
	}
	if call.Language != "" {
		req.Header.Set("Accept-Language", call.Language)
	}
	if call.TimeZone != "" {
		req.Header.Set("X-Timezone", call.TimeZone)
	}
	return req, nil
}

// normalize maps a backend status and body to a Result or *Error.
func normalize(status int, raw []byte) (*Result, error) {
	var body responseBody
	if len(bytes.TrimSpace(raw)) > 0 {
		// Non-JSON bodies (proxy error pages) are treated as empty.
		_ = json.Unmarshal(raw, &body)
	}

	if status >= 200 && status < 300 {
		return &Result{Status: status, Message: body.Message, Data: body.Data}, nil
	}

	be := &Error{
		Status:     status,
		Code:       body.ErrorCode,
		MetaData:   body.MetaData,
		RawMessage: body.Message,
	}
	if status == http.StatusBadRequest {
		be.Message = body.Message
		be.Errors = body.Errors
	}
	return nil, be
}
