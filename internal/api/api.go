// Package api wraps business handlers for the /api surface. Every request
// body arrives as an encrypted envelope and every response, success or
// failure, leaves as one. Handlers receive the decrypted payload, the
// cookie session, and the request language, and return a *Response built
// with Respond.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lethanhdatit/bocmenh/internal/i18n"
	"github.com/lethanhdatit/bocmenh/internal/session"
	"github.com/lethanhdatit/bocmenh/pkg/envelope"
)

// maxBodyBytes caps encrypted request bodies.
const maxBodyBytes = 1 << 20

// timeZoneHeader carries the caller's IANA time zone.
const timeZoneHeader = "X-Timezone"

// Route declares per-route wrapper behavior.
type Route struct {
	// AuthRequired short-circuits anonymous callers with a retryable 401.
	AuthRequired bool
}

// Public is the zero Route.
var Public = Route{}

// Authed requires a logged-in session.
var Authed = Route{AuthRequired: true}

// HandlerFunc is a business handler. It must always return a response;
// errors are converted with HandleServerError inside the handler.
type HandlerFunc func(r *Request) *Response

// Wrapper holds the shared codec, session manager, and translator.
type Wrapper struct {
	codec      *envelope.Codec
	sessions   *session.Manager
	translator *i18n.Translator
}

// NewWrapper creates a Wrapper.
func NewWrapper(codec *envelope.Codec, sessions *session.Manager, tr *i18n.Translator) *Wrapper {
	return &Wrapper{codec: codec, sessions: sessions, translator: tr}
}

// Translator returns the shared translator.
func (w *Wrapper) Translator() *i18n.Translator {
	return w.translator
}

// Sessions returns the shared session manager.
func (w *Wrapper) Sessions() *session.Manager {
	return w.sessions
}

// Wrap adapts fn to an Echo handler: decrypt the body, load the session,
// enforce route.AuthRequired, run fn, and encrypt the response.
func (w *Wrapper) Wrap(route Route, fn HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := &Request{
			echo:     c,
			wrapper:  w,
			Payload:  w.readPayload(c),
			Session:  w.sessions.Load(c),
			TimeZone: c.Request().Header.Get(timeZoneHeader),
		}
		req.Language = w.requestLanguage(c, req.Session)

		if route.AuthRequired && !req.Session.LoggedIn() {
			resp := Respond(http.StatusUnauthorized, "errors.authRequired", nil, nil)
			resp.ErrorCode = envelope.CodeAuthRequiredRetry
			resp.ForwardData = req.Payload
			return w.write(c, req.Language, resp)
		}

		resp := fn(req)
		return w.write(c, req.Language, resp)
	}
}

// readPayload decrypts an {"encrypted": ...} body on mutating methods.
// Undecodable bodies are treated as absent.
func (w *Wrapper) readPayload(c echo.Context) json.RawMessage {
	switch c.Request().Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil || len(raw) == 0 {
		return nil
	}

	var body struct {
		Encrypted *string `json:"encrypted"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Encrypted == nil {
		return nil
	}

	var payload json.RawMessage
	if err := w.codec.Decrypt(*body.Encrypted, &payload); err != nil {
		slog.Debug("discarding undecryptable request body",
			slog.String("path", c.Request().URL.Path),
			slog.Any("error", err),
		)
		return nil
	}
	return payload
}

// requestLanguage resolves the response language: Accept-Language, then
// the session's saved language, then the default.
func (w *Wrapper) requestLanguage(c echo.Context, s *session.Session) string {
	if h := c.Request().Header.Get("Accept-Language"); h != "" {
		return w.translator.Match(h)
	}
	if s.Language != "" && w.translator.Enabled(s.Language) {
		return s.Language
	}
	return w.translator.Default()
}

// WriteError renders a bare error envelope. Used by the application error
// handler for failures that never reached a wrapped handler.
func (w *Wrapper) WriteError(c echo.Context, status int, messageKey string) error {
	lang := w.requestLanguage(c, w.sessions.Load(c))
	return w.write(c, lang, Respond(status, messageKey, nil, nil))
}

// write translates, encrypts, and sends resp. Any 401 destroys the session.
func (w *Wrapper) write(c echo.Context, lang string, resp *Response) error {
	if resp == nil {
		resp = Respond(http.StatusInternalServerError, "errors.generic", nil, nil)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	payload := envelope.Payload{
		Success:         status < http.StatusBadRequest,
		Message:         w.translator.T(lang, resp.Message),
		Data:            resp.Data,
		ErrorCode:       resp.ErrorCode,
		ForwardData:     resp.ForwardData,
		BeErrorCode:     resp.BeErrorCode,
		BeErrorMetaData: resp.BeErrorMetaData,
		BeErrorMessage:  resp.BeErrorMessage,
	}
	if len(resp.Errors) > 0 {
		payload.Errors = make(map[string]string, len(resp.Errors))
		for field, key := range resp.Errors {
			payload.Errors[field] = w.translator.T(lang, key, resp.ErrorArgs[field])
		}
	}

	if status == http.StatusUnauthorized {
		if payload.ErrorCode == "" {
			payload.ErrorCode = envelope.CodeAuthRequiredRetry
		}
		if err := w.sessions.Destroy(c); err != nil {
			slog.Warn("failed to destroy session on 401", slog.Any("error", err))
		}
	}

	body, err := w.codec.Seal(payload)
	if err != nil {
		// Nothing sensible can be encrypted; fail closed without detail.
		slog.Error("failed to encrypt response", slog.Any("error", err))
		return c.NoContent(http.StatusInternalServerError)
	}
	return c.JSON(status, body)
}
