// Package client is the Go client for the encrypted /api surface. It seals
// mutating request bodies, opens every response envelope, and runs the
// login-and-retry flow when the server answers 401.
//
// A 401 carrying AUTH_REQUIRED or AUTH_REQUIRED_RETRY pauses the call and
// hands a Challenge to the registered LoginPrompter. When the prompter
// returns nil the user is logged in: AUTH_REQUIRED_RETRY calls are replayed
// once with the payload the server echoed back, AUTH_REQUIRED calls fail
// with ErrPleaseTryAgain because nothing safe can be replayed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/lethanhdatit/bocmenh/pkg/envelope"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// ErrPleaseTryAgain is returned after a successful login prompt for a call
// that cannot be replayed.
var ErrPleaseTryAgain = errors.New("client: logged in, please try the request again")

// Raw is a request body sent untouched, such as a multipart upload.
type Raw struct {
	Body        io.Reader
	ContentType string
}

// Challenge describes the call that needs a login.
type Challenge struct {
	// Code is envelope.CodeAuthRequired or envelope.CodeAuthRequiredRetry.
	Code    string
	Message string
	Method  string
	Path    string
}

// Retryable reports whether the call will be replayed after login.
func (ch Challenge) Retryable() bool {
	return ch.Code == envelope.CodeAuthRequiredRetry
}

// LoginPrompter logs the user in. PromptLogin blocks until the user has
// logged in (nil) or given up (non-nil). It may use the same Client.
type LoginPrompter interface {
	PromptLogin(ctx context.Context, ch Challenge) error
}

// LoginPrompterFunc adapts a function to LoginPrompter.
type LoginPrompterFunc func(ctx context.Context, ch Challenge) error

// PromptLogin calls f.
func (f LoginPrompterFunc) PromptLogin(ctx context.Context, ch Challenge) error {
	return f(ctx, ch)
}

// Error is a non-2xx API reply.
type Error struct {
	Status  int
	Payload envelope.Payload
}

func (e *Error) Error() string {
	if e.Payload.Message != "" {
		return fmt.Sprintf("api: %d: %s", e.Status, e.Payload.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// Options configures a Client.
type Options struct {
	// BaseURL is the site origin, e.g. "https://bocmenh.example.com".
	BaseURL string

	// HTTPClient defaults to a client with a cookie jar and a 30s timeout.
	// A custom client needs a Jar to keep the session cookie.
	HTTPClient *http.Client

	// Language returns the current UI language for Accept-Language.
	Language func() string

	// TimeZone is sent as X-Timezone, e.g. "Asia/Ho_Chi_Minh".
	TimeZone string
}

// Client calls the API. It is safe for concurrent use.
type Client struct {
	baseURL  string
	codec    *envelope.Codec
	http     *http.Client
	language func() string
	timeZone string

	mu       sync.RWMutex
	onLogout func()
	prompter LoginPrompter
}

// New creates a Client sealing bodies with codec.
func New(codec *envelope.Codec, opts Options) (*Client, error) {
	hc := opts.HTTPClient
	if hc == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		hc = &http.Client{Jar: jar, Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		codec:    codec,
		http:     hc,
		language: opts.Language,
		timeZone: opts.TimeZone,
	}, nil
}

// OnLogout registers fn to run on every 401, clearing client-side auth
// state.
func (c *Client) OnLogout(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLogout = fn
}

// SetLoginPrompter registers the handler that logs the user in when a
// call hits a 401. Without one, 401s are returned as *Error.
func (c *Client) SetLoginPrompter(p LoginPrompter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompter = p
}

func (c *Client) handlers() (func(), LoginPrompter) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onLogout, c.prompter
}

// Do calls method path with body and decodes the reply data into out
// (which may be nil). body may be nil, a Raw, an io.Reader, or any
// JSON-encodable value; JSON values are sealed on mutating methods.
// Failures are *Error, ErrPleaseTryAgain, or transport errors.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	retried := false
	for {
		status, p, err := c.send(ctx, method, path, body)
		if err != nil {
			return err
		}
		if status < http.StatusBadRequest {
			return decodeData(p.Data, out)
		}

		apiErr := &Error{Status: status, Payload: p}
		if status != http.StatusUnauthorized {
			return apiErr
		}

		onLogout, prompter := c.handlers()
		if onLogout != nil {
			onLogout()
		}
		if retried || prompter == nil || !authCode(p.ErrorCode) {
			return apiErr
		}
		retried = true
		ch := Challenge{Code: p.ErrorCode, Message: p.Message, Method: method, Path: path}
		switch {
		case p.ForwardData != nil:
			raw, err := json.Marshal(p.ForwardData)
			if err != nil {
				return apiErr
			}
			body = json.RawMessage(raw)
		case streamed(body):
			// The first send drained the reader and the server kept no copy.
			ch.Code = envelope.CodeAuthRequired
		}

		if err := prompter.PromptLogin(ctx, ch); err != nil {
			return apiErr
		}
		if !ch.Retryable() {
			return ErrPleaseTryAgain
		}
	}
}

// streamed reports whether body is consumed by sending it.
func streamed(body any) bool {
	switch body.(type) {
	case Raw, io.Reader:
		return true
	}
	return false
}

func authCode(code string) bool {
	return code == envelope.CodeAuthRequired || code == envelope.CodeAuthRequiredRetry
}

// send performs one round trip and opens the reply.
func (c *Client) send(ctx context.Context, method, path string, body any) (int, envelope.Payload, error) {
	var p envelope.Payload

	reader, contentType, err := c.encodeBody(method, body)
	if err != nil {
		return 0, p, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, p, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.language != nil {
		if lang := c.language(); lang != "" {
			req.Header.Set("Accept-Language", lang)
		}
	}
	if c.timeZone != "" {
		req.Header.Set("X-Timezone", c.timeZone)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, p, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, p, fmt.Errorf("reading response: %w", err)
	}
	p, err = c.openBody(raw)
	if err != nil {
		return 0, p, err
	}
	return resp.StatusCode, p, nil
}

func (c *Client) encodeBody(method string, body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case Raw:
		return b.Body, b.ContentType, nil
	case io.Reader:
		return b, "", nil
	}

	v := body
	if mutating(method) {
		sealed, err := c.codec.Seal(body)
		if err != nil {
			return nil, "", fmt.Errorf("sealing request: %w", err)
		}
		v = sealed
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("encoding request: %w", err)
	}
	return bytes.NewReader(raw), "application/json", nil
}

// openBody decrypts {"encrypted": ...} replies. Plain JSON replies (e.g.
// /healthz) are decoded as-is; anything else yields an empty payload.
func (c *Client) openBody(raw []byte) (envelope.Payload, error) {
	var p envelope.Payload
	if len(bytes.TrimSpace(raw)) == 0 {
		return p, nil
	}

	var sealed envelope.Body
	if err := json.Unmarshal(raw, &sealed); err == nil && sealed.Encrypted != "" {
		if err := c.codec.Decrypt(sealed.Encrypted, &p); err != nil {
			return p, fmt.Errorf("opening response: %w", err)
		}
		return p, nil
	}

	_ = json.Unmarshal(raw, &p)
	return p, nil
}

func decodeData(data, out any) error {
	if out == nil || data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
