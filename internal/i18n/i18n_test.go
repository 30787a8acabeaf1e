package i18n

import "testing"

func newTestTranslator(t *testing.T) *Translator {
	t.Helper()
	tr, err := New("vi", []string{"vi", "en"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

func TestT_FallbackOrder(t *testing.T) {
	tr := newTestTranslator(t)

	if got := tr.T("en", "errors.generic"); got != "Something went wrong. Please try again later." {
		t.Errorf("requested locale: got %q", got)
	}

	// pages.error.title only exists in vi.yaml.
	if got := tr.T("en", "pages.error.title"); got != "Có lỗi xảy ra" {
		t.Errorf("default locale fallback: got %q", got)
	}

	if got := tr.T("en", "no.such.key"); got != "no.such.key" {
		t.Errorf("literal key fallback: got %q", got)
	}

	if got := tr.T("fr", "common.success"); got != "Thành công" {
		t.Errorf("unknown locale should use default: got %q", got)
	}
}

func TestT_Placeholders(t *testing.T) {
	tr := newTestTranslator(t)
	got := tr.T("en", "validation.passwordLength", map[string]any{"min": 6, "max": 128})
	if got != "Password must be between 6 and 128 characters." {
		t.Errorf("got %q", got)
	}
}

func TestMatch(t *testing.T) {
	tr := newTestTranslator(t)

	tests := []struct {
		header string
		want   string
	}{
		{"", "vi"},
		{"en-US,en;q=0.9", "en"},
		{"vi-VN,vi;q=0.9,en;q=0.8", "vi"},
		{"fr-FR,fr;q=0.9,en;q=0.5", "en"},
		{"ja", "vi"},
		{"*", "vi"},
		{";;;garbage", "vi"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := tr.Match(tt.header); got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestEnabledAndLocales(t *testing.T) {
	tr, err := New("en", []string{"vi", "en"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !tr.Enabled("vi") || !tr.Enabled("en") || tr.Enabled("fr") {
		t.Error("unexpected Enabled result")
	}
	locs := tr.Locales()
	if len(locs) != 2 || locs[0] != "en" {
		t.Errorf("expected default first, got %v", locs)
	}
}

func TestNew_MissingTable(t *testing.T) {
	if _, err := New("vi", []string{"vi", "fr"}); err == nil {
		t.Error("expected error for locale without a table")
	}
}
