package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/lethanhdatit/bocmenh/internal/apperror"
	"github.com/lethanhdatit/bocmenh/internal/backend"
	"github.com/lethanhdatit/bocmenh/pkg/envelope"
)

// Response is the unencrypted form of an API reply. Message and Errors
// values are translation keys or literal text.
type Response struct {
	Status      int
	Message     string
	Data        any
	Errors      map[string]string
	ErrorArgs   map[string]map[string]any
	ErrorCode   string
	ForwardData any

	BeErrorCode     string
	BeErrorMetaData any
	BeErrorMessage  string
}

// Respond builds a response with the given status. Status 401 always
// carries AUTH_REQUIRED_RETRY.
func Respond(status int, message string, data any, errs map[string]string) *Response {
	resp := &Response{
		Status:  status,
		Message: message,
		Data:    data,
		Errors:  errs,
	}
	if status == http.StatusUnauthorized {
		resp.ErrorCode = envelope.CodeAuthRequiredRetry
	}
	return resp
}

// OK is Respond(200, message, data, nil).
func OK(message string, data any) *Response {
	return Respond(http.StatusOK, message, data, nil)
}

// HandleServerError converts any handler error into a well-formed
// response. Backend 400s keep their message and field errors, 401s destroy
// the session (in write) and ask the client to log in, everything else
// becomes a generic translated message. Backend error code and metadata
// are passed through for client-side special-casing.
func HandleServerError(r *Request, err error) *Response {
	var ve *validationError
	if errors.As(err, &ve) {
		resp := Respond(ve.Code, ve.Message, nil, ve.Fields)
		resp.ErrorArgs = ve.args
		return resp
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", r.echo.Request().URL.Path),
			)
		}
		if appErr.Code == http.StatusUnauthorized {
			return r.authFailure(appErr.Message)
		}
		return Respond(appErr.Code, appErr.Message, nil, appErr.Fields)
	}

	if be, ok := backend.AsError(err); ok {
		return r.backendFailure(be)
	}

	slog.Error("unhandled error",
		slog.Any("error", err),
		slog.String("path", r.echo.Request().URL.Path),
	)
	return Respond(http.StatusInternalServerError, "errors.generic", nil, nil)
}

func (r *Request) backendFailure(be *backend.Error) *Response {
	var resp *Response
	switch {
	case be.Status == http.StatusBadRequest:
		msg := be.Message
		if msg == "" {
			msg = "errors.badRequest"
		}
		resp = Respond(http.StatusBadRequest, msg, nil, be.Errors)
	case be.Status == http.StatusUnauthorized:
		resp = r.authFailure("errors.authRequired")
	case be.Status == http.StatusForbidden:
		resp = Respond(http.StatusForbidden, "errors.forbidden", nil, nil)
	case be.Status == http.StatusNotFound:
		resp = Respond(http.StatusNotFound, "errors.notFound", nil, nil)
	case be.Status >= 400 && be.Status < 500:
		resp = Respond(be.Status, "errors.generic", nil, nil)
	default:
		if be.Err != nil {
			slog.Error("backend unavailable",
				slog.Any("error", be.Err),
				slog.String("path", r.echo.Request().URL.Path),
			)
		}
		resp = Respond(http.StatusInternalServerError, "errors.generic", nil, nil)
	}

	resp.BeErrorCode = be.Code
	resp.BeErrorMetaData = be.MetaData
	resp.BeErrorMessage = be.RawMessage
	return resp
}

// authFailure builds the 401 for a handler that discovered mid-flight that
// its session is no longer valid.
func (r *Request) authFailure(message string) *Response {
	resp := Respond(http.StatusUnauthorized, message, nil, nil)
	if r.replayable() {
		resp.ForwardData = r.Payload
	} else {
		resp.ErrorCode = envelope.CodeAuthRequired
	}
	return resp
}
