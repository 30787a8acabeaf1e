package middleware

import (
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lethanhdatit/bocmenh/internal/i18n"
)

// LocaleCookie remembers the visitor's last explicit locale.
const LocaleCookie = "NEXT_LOCALE"

// localeKey is the Echo context key holding the resolved locale.
const localeKey = "locale"

// localeCookieMaxAge is one year.
const localeCookieMaxAge = 365 * 24 * 60 * 60

// localeSkipPrefixes are never localized.
var localeSkipPrefixes = []string{
	"/static",
	"/api",
	"/_next",
	"/.well-known",
	"/favicon.ico",
	"/robots.txt",
	"/sitemap.xml",
	"/healthz",
}

// LocaleConfig configures the Locale middleware.
type LocaleConfig struct {
	Translator *i18n.Translator

	// Secure marks the NEXT_LOCALE cookie HTTPS-only.
	Secure bool
}

// Locale returns pre-routing middleware that maps page URLs to a locale.
// The default locale is served unprefixed; other enabled locales live
// under /<locale>/. Register it with e.Pre so the prefix is stripped
// before the router matches.
//
//	/vi/about  -> 307 /about            (default locale is never prefixed)
//	/en/about  -> served as /about, locale "en"
//	/about     -> 307 /en/about          when the visitor resolves to "en"
//	/about     -> served, locale "vi"    otherwise
func Locale(cfg LocaleConfig) echo.MiddlewareFunc {
	tr := cfg.Translator
	def := tr.Default()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			p := req.URL.Path
			if skipLocale(p) {
				return next(c)
			}

			if prefix, rest, ok := splitLocale(p, tr); ok {
				SetLocaleCookie(c, prefix, cfg.Secure)
				if prefix == def {
					return c.Redirect(http.StatusTemporaryRedirect, withQuery(rest, req.URL.RawQuery))
				}
				req.URL.Path = rest
				req.URL.RawPath = ""
				c.Set(localeKey, prefix)
				return next(c)
			}

			loc := resolveLocale(c, tr)
			if loc != def {
				target := "/" + loc
				if p != "/" {
					target += p
				}
				return c.Redirect(http.StatusTemporaryRedirect, withQuery(target, req.URL.RawQuery))
			}

			c.Set(localeKey, def)
			return next(c)
		}
	}
}

// GetLocale returns the locale resolved for this request, or "" when the
// path was not localized.
func GetLocale(c echo.Context) string {
	if l, ok := c.Get(localeKey).(string); ok {
		return l
	}
	return ""
}

func skipLocale(p string) bool {
	for _, prefix := range localeSkipPrefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return path.Ext(path.Base(p)) != ""
}

// splitLocale reports whether the first path segment is an enabled locale
// and returns it with the remaining path.
func splitLocale(p string, tr *i18n.Translator) (locale, rest string, ok bool) {
	seg := strings.TrimPrefix(p, "/")
	rest = "/"
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		rest = seg[i:]
		seg = seg[:i]
	}
	if seg == "" || !tr.Enabled(seg) {
		return "", "", false
	}
	return seg, rest, true
}

// resolveLocale picks the locale for an unprefixed path: an enabled
// NEXT_LOCALE cookie, then Accept-Language, then the default.
func resolveLocale(c echo.Context, tr *i18n.Translator) string {
	if ck, err := c.Cookie(LocaleCookie); err == nil && tr.Enabled(ck.Value) {
		return ck.Value
	}
	return tr.Match(c.Request().Header.Get("Accept-Language"))
}

// SetLocaleCookie stores locale as the visitor's preference.
func SetLocaleCookie(c echo.Context, locale string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     LocaleCookie,
		Value:    locale,
		Path:     "/",
		MaxAge:   localeCookieMaxAge,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func withQuery(p, rawQuery string) string {
	if rawQuery == "" {
		return p
	}
	return p + "?" + rawQuery
}
