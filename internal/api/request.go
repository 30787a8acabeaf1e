package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lethanhdatit/bocmenh/internal/apperror"
	"github.com/lethanhdatit/bocmenh/internal/backend"
	"github.com/lethanhdatit/bocmenh/internal/session"
)

// Request is what a wrapped handler sees.
type Request struct {
	// Payload is the decrypted request body, nil when absent.
	Payload json.RawMessage

	// Session is the cookie session loaded for this request.
	Session *session.Session

	// Language is the resolved response language.
	Language string

	// TimeZone is the caller's X-Timezone header, if any.
	TimeZone string

	echo    echo.Context
	wrapper *Wrapper
}

// Echo returns the underlying Echo context.
func (r *Request) Echo() echo.Context {
	return r.echo
}

// Context returns the request's context.Context.
func (r *Request) Context() context.Context {
	return r.echo.Request().Context()
}

// Param returns a route parameter.
func (r *Request) Param(name string) string {
	return r.echo.Param(name)
}

// Query returns a query string parameter.
func (r *Request) Query(name string) string {
	return r.echo.QueryParam(name)
}

// RealIP returns the client IP as resolved by the trusted proxy config.
func (r *Request) RealIP() string {
	return r.echo.RealIP()
}

// Bind decodes the payload into out. An absent payload binds as an empty
// object so validation reports the missing fields.
func (r *Request) Bind(out any) error {
	data := []byte(r.Payload)
	if len(data) == 0 || string(data) == "null" {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperror.NewBadRequest("errors.badRequest")
	}
	return nil
}

// T translates key in the request language.
func (r *Request) T(key string, args ...map[string]any) string {
	return r.wrapper.translator.T(r.Language, key, args...)
}

// Enabled reports whether locale is a configured language.
func (r *Request) Enabled(locale string) bool {
	return r.wrapper.translator.Enabled(locale)
}

// SaveSession persists r.Session to the response cookie.
func (r *Request) SaveSession() error {
	return r.wrapper.sessions.Save(r.echo, r.Session)
}

// DestroySession clears the session cookie and resets r.Session.
func (r *Request) DestroySession() error {
	if err := r.wrapper.sessions.Destroy(r.echo); err != nil {
		return err
	}
	r.Session = r.wrapper.sessions.Load(r.echo)
	return nil
}

// Backend returns a call template carrying the session token, language,
// and time zone of this request. Target it with Call.With.
func (r *Request) Backend() backend.Call {
	call := backend.Call{
		Language: r.Language,
		TimeZone: r.TimeZone,
	}
	if r.Session.LoggedIn() {
		call.Token = r.Session.AccessToken
	}
	return call
}

// replayable reports whether a 401 on this request can be retried
// transparently: safe methods always can, mutating ones only when the
// payload came through the envelope.
func (r *Request) replayable() bool {
	switch r.echo.Request().Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodDelete:
		return true
	}
	return r.Payload != nil
}
