// Package i18n holds the per-locale translation tables and the language
// negotiation shared by the locale middleware, the API wrapper, and the
// backend client.
//
// Lookups resolve in a fixed order: requested locale, then the default
// locale, then the literal key.
package i18n

import (
	"embed"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Translator resolves message keys for the enabled locales. It is
// immutable after New and safe for concurrent use.
type Translator struct {
	defaultLocale string
	locales       []string // default first
	tables        map[string]map[string]string
	matcher       language.Matcher
}

// New loads the embedded tables for every enabled locale. The default
// locale must be enabled and must have a table.
func New(defaultLocale string, enabled []string) (*Translator, error) {
	t := &Translator{
		defaultLocale: defaultLocale,
		tables:        make(map[string]map[string]string, len(enabled)),
	}

	t.locales = append(t.locales, defaultLocale)
	for _, l := range enabled {
		if l != defaultLocale {
			t.locales = append(t.locales, l)
		}
	}

	tags := make([]language.Tag, 0, len(t.locales))
	for _, l := range t.locales {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parsing locale %q: %w", l, err)
		}
		tags = append(tags, tag)

		table, err := loadTable(l)
		if err != nil {
			return nil, err
		}
		t.tables[l] = table
	}
	t.matcher = language.NewMatcher(tags)

	return t, nil
}

// loadTable reads locales/<locale>.yaml and flattens it into dotted keys.
func loadTable(locale string) (map[string]string, error) {
	data, err := localeFS.ReadFile("locales/" + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("reading translations for %q: %w", locale, err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parsing translations for %q: %w", locale, err)
	}

	table := make(map[string]string)
	flatten("", tree, table)
	return table, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// T translates key for locale. Placeholders like {min} are replaced from
// the optional args map.
func (t *Translator) T(locale, key string, args ...map[string]any) string {
	msg, ok := t.tables[locale][key]
	if !ok {
		msg, ok = t.tables[t.defaultLocale][key]
	}
	if !ok {
		return key
	}

	for _, a := range args {
		for name, v := range a {
			msg = strings.ReplaceAll(msg, "{"+name+"}", fmt.Sprint(v))
		}
	}
	return msg
}

// Match returns the enabled locale that best fits an Accept-Language
// header, or the default locale when nothing matches.
func (t *Translator) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return t.defaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.defaultLocale
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return t.defaultLocale
	}
	return t.locales[idx]
}

// Enabled reports whether locale is one of the configured languages.
func (t *Translator) Enabled(locale string) bool {
	_, ok := t.tables[locale]
	return ok
}

// Default returns the default locale.
func (t *Translator) Default() string {
	return t.defaultLocale
}

// Locales returns the enabled locales, default first.
func (t *Translator) Locales() []string {
	out := make([]string, len(t.locales))
	copy(out, t.locales)
	return out
}
