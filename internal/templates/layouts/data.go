// data.go provides typed context helpers for passing layout data from
// handlers to templ components. Only simple types are stored so the
// layouts package never imports plugin types.
//
// Data flow: Handler → Go Context (layouts.With*) → templ
package layouts

import "context"

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey string

const (
	keyLocale          ctxKey = "layout_locale"
	keyIsAuthenticated ctxKey = "layout_is_authenticated"
	keyUserName        ctxKey = "layout_user_name"
	keyRequestID       ctxKey = "layout_request_id"
)

// Data is everything the shell needs from the request.
type Data struct {
	Locale          string
	IsAuthenticated bool
	UserName        string
	RequestID       string
}

// WithData stores d in ctx.
func WithData(ctx context.Context, d Data) context.Context {
	ctx = context.WithValue(ctx, keyLocale, d.Locale)
	ctx = context.WithValue(ctx, keyIsAuthenticated, d.IsAuthenticated)
	ctx = context.WithValue(ctx, keyUserName, d.UserName)
	ctx = context.WithValue(ctx, keyRequestID, d.RequestID)
	return ctx
}

// GetLocale returns the page locale, or "" when unset.
func GetLocale(ctx context.Context) string {
	v, _ := ctx.Value(keyLocale).(string)
	return v
}

// IsAuthenticated reports whether a user is logged in.
func IsAuthenticated(ctx context.Context) bool {
	v, _ := ctx.Value(keyIsAuthenticated).(bool)
	return v
}

// GetUserName returns the logged-in user's display name.
func GetUserName(ctx context.Context) string {
	v, _ := ctx.Value(keyUserName).(string)
	return v
}

// GetRequestID returns the request id shown on error pages.
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}
