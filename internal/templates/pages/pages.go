// Package pages renders the server-side HTML shell: the landing page per
// locale and the error page for non-API routes. Everything else is
// rendered by the client.
package pages

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/lethanhdatit/bocmenh/internal/i18n"
	"github.com/lethanhdatit/bocmenh/internal/templates/layouts"
)

// homePath returns the landing path for locale: "/" for the default,
// "/xx" otherwise.
func homePath(tr *i18n.Translator, locale string) string {
	if locale == "" || locale == tr.Default() {
		return "/"
	}
	return "/" + locale
}

// Landing is the localized landing page.
func Landing(tr *i18n.Translator) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		loc := layouts.GetLocale(ctx)
		greeting := ""
		if layouts.IsAuthenticated(ctx) {
			greeting = `<p class="greeting">` + templ.EscapeString(layouts.GetUserName(ctx)) + `</p>`
		}
		_, err := io.WriteString(w, `<main class="landing">`+
			`<h1>`+templ.EscapeString(tr.T(loc, "pages.landing.title"))+`</h1>`+
			`<p>`+templ.EscapeString(tr.T(loc, "pages.landing.subtitle"))+`</p>`+
			greeting+
			`<div id="app" data-locale="`+templ.EscapeString(loc)+`"></div>`+
			`</main><script src="/static/js/app.js" defer></script>`)
		return err
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layouts.Base(tr.T(layouts.GetLocale(ctx), "pages.landing.title"), body).Render(ctx, w)
	})
}

// ErrorPage shows status with a translated message and a link home.
func ErrorPage(tr *i18n.Translator, status int, messageKey string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		loc := layouts.GetLocale(ctx)
		ref := ""
		if id := layouts.GetRequestID(ctx); id != "" {
			ref = `<p class="ref"><code>` + templ.EscapeString(id) + `</code></p>`
		}
		_, err := io.WriteString(w, `<main class="error">`+
			`<h1>`+strconv.Itoa(status)+` `+templ.EscapeString(http.StatusText(status))+`</h1>`+
			`<p>`+templ.EscapeString(tr.T(loc, messageKey))+`</p>`+
			ref+
			`<a href="`+templ.EscapeString(homePath(tr, loc))+`">`+templ.EscapeString(tr.T(loc, "pages.error.back"))+`</a>`+
			`</main>`)
		return err
	})
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layouts.Base(tr.T(layouts.GetLocale(ctx), "pages.error.title"), body).Render(ctx, w)
	})
}
