package envelope

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func newTestCodec(t *testing.T, secret string) *Codec {
	t.Helper()
	c, err := New(secret)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestRoundTrip(t *testing.T) {
	c := newTestCodec(t, "test-secret")

	tests := []struct {
		name  string
		value any
	}{
		{"object", map[string]any{"email": "an@example.com", "n": float64(42), "ok": true}},
		{"nested", map[string]any{"a": []any{"x", float64(1), nil}, "b": map[string]any{"c": "d"}}},
		{"array", []any{"vi", "en"}},
		{"string", "xin chào"},
		{"number", float64(3.5)},
		{"null", nil},
		{"empty object", map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := c.Encrypt(tt.value)
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}
			var got any
			if err := c.Decrypt(ct, &got); err != nil {
				t.Fatalf("Decrypt: %v", err)
			}
			if !reflect.DeepEqual(got, tt.value) {
				t.Errorf("round trip mismatch: got %#v, want %#v", got, tt.value)
			}
		})
	}
}

func TestEncrypt_FreshNonce(t *testing.T) {
	c := newTestCodec(t, "test-secret")
	a, _ := c.Encrypt(map[string]string{"k": "v"})
	b, _ := c.Encrypt(map[string]string{"k": "v"})
	if a == b {
		t.Error("expected distinct ciphertexts for identical payloads")
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	ct, err := newTestCodec(t, "secret-a").Encrypt("hello")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	var out string
	err = newTestCodec(t, "secret-b").Decrypt(ct, &out)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestDecrypt_Garbage(t *testing.T) {
	c := newTestCodec(t, "test-secret")
	for _, in := range []string{"", "not base64!!", "AAAA", strings.Repeat("A", 64)} {
		var out any
		if err := c.Decrypt(in, &out); err == nil {
			t.Errorf("Decrypt(%q): expected error", in)
		}
	}
}

func TestNew_EmptySecret(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestSeal_PayloadShape(t *testing.T) {
	c := newTestCodec(t, "test-secret")
	body, err := c.Seal(Payload{Success: false, ErrorCode: CodeAuthRequiredRetry, ForwardData: map[string]any{"x": "y"}})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	var p Payload
	if err := c.Decrypt(body.Encrypted, &p); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if p.Success || p.ErrorCode != CodeAuthRequiredRetry {
		t.Errorf("unexpected payload: %+v", p)
	}
	fd, ok := p.ForwardData.(map[string]any)
	if !ok || fd["x"] != "y" {
		t.Errorf("forwardData not preserved: %#v", p.ForwardData)
	}
}
