package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestDo_SuccessForwardsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "key-1" {
			t.Errorf("missing api key header, got %q", r.Header.Get("X-Api-Key"))
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("unexpected authorization %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Accept-Language") != "en" {
			t.Errorf("unexpected language %q", r.Header.Get("Accept-Language"))
		}
		if r.URL.Path != "/api/destiny" || r.URL.Query().Get("v") != "2" {
			t.Errorf("unexpected url %s", r.URL)
		}
		var in map[string]string
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in["name"] != "An" {
			t.Errorf("unexpected body %v (%v)", in, err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"ok","data":{"element":"Kim"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "key-1", 5*time.Second)
	res, err := c.Do(context.Background(), Call{
		Method:   http.MethodPost,
		Path:     "/api/destiny",
		Query:    url.Values{"v": {"2"}},
		Body:     map[string]string{"name": "An"},
		Token:    "tok",
		Language: "en",
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if res.Status != 200 || res.Message != "ok" {
		t.Errorf("unexpected result %+v", res)
	}
	var data struct{ Element string }
	if err := res.Decode(&data); err != nil || data.Element != "Kim" {
		t.Errorf("Decode: %v %+v", err, data)
	}
}

func TestDo_NormalizesErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantCode    string
		wantErrors  int
	}{
		{"validation", 400, `{"message":"Invalid","errors":{"email":"taken"}}`, "Invalid", "", 1},
		{"unauthorized", 401, `{"message":"Token expired"}`, "", "", 0},
		{"forbidden", 403, `{"message":"nope"}`, "", "", 0},
		{"insufficient balance", 422, `{"message":"Not enough","errorCode":"INSUFFICIENT_BALANCE","metaData":{"need":50}}`, "", "INSUFFICIENT_BALANCE", 0},
		{"server html", 502, `<html>bad gateway</html>`, "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "", time.Second).Do(context.Background(), Call{Path: "/x"})
			be, ok := AsError(err)
			if !ok {
				t.Fatalf("expected *Error, got %T %v", err, err)
			}
			if be.Status != tt.status {
				t.Errorf("status = %d, want %d", be.Status, tt.status)
			}
			if be.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", be.Message, tt.wantMessage)
			}
			if be.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", be.Code, tt.wantCode)
			}
			if len(be.Errors) != tt.wantErrors {
				t.Errorf("errors = %v", be.Errors)
			}
		})
	}
}

func TestDo_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).Do(context.Background(), Call{Path: "/x"})
	be, ok := AsError(err)
	if !ok || be.Status != http.StatusBadGateway || be.Err == nil {
		t.Fatalf("expected 502 transport error, got %v", err)
	}
	if errors.Unwrap(be) == nil {
		t.Error("expected wrapped transport error")
	}
}
