package fortune

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/lethanhdatit/bocmenh/internal/backend"
)

// --- Mock Backend ---

// mockBackend implements backend.Service for testing.
type mockBackend struct {
	doFn  func(ctx context.Context, call backend.Call) (*backend.Result, error)
	calls []backend.Call
}

func (m *mockBackend) Do(ctx context.Context, call backend.Call) (*backend.Result, error) {
	m.calls = append(m.calls, call)
	if m.doFn != nil {
		return m.doFn(ctx, call)
	}
	return &backend.Result{Status: http.StatusOK, Data: json.RawMessage(`{"reading":"ok"}`)}, nil
}

func (m *mockBackend) body(t *testing.T, out any) {
	t.Helper()
	raw, err := json.Marshal(m.calls[len(m.calls)-1].Body)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatal(err)
	}
}

func TestDestiny_ForwardsWithToken(t *testing.T) {
	be := &mockBackend{}
	svc := NewFortuneService(be)

	meta := backend.Call{Token: "tok", Language: "vi", TimeZone: "Asia/Ho_Chi_Minh"}
	data, err := svc.Destiny(context.Background(), meta, DestinyRequest{
		Name:      "  Nguyễn   Văn <b>An</b> ",
		BirthDate: "1990-08-25",
		Gender:    GenderMale,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"reading":"ok"}` {
		t.Errorf("data = %s", data)
	}

	call := be.calls[0]
	if call.Method != http.MethodPost || call.Path != pathDestiny {
		t.Errorf("call = %s %s", call.Method, call.Path)
	}
	if call.Token != "tok" || call.TimeZone != "Asia/Ho_Chi_Minh" {
		t.Errorf("meta not carried: %+v", call)
	}

	var sent DestinyRequest
	be.body(t, &sent)
	if sent.Name != "Nguyễn Văn An" {
		t.Errorf("name not sanitized: %q", sent.Name)
	}
}

func TestNumerologyAndTarot(t *testing.T) {
	be := &mockBackend{}
	svc := NewFortuneService(be)
	ctx := context.Background()

	if _, err := svc.Numerology(ctx, backend.Call{}, NumerologyRequest{Name: "An", BirthDate: "1990-08-25"}); err != nil {
		t.Fatal(err)
	}
	if be.calls[0].Path != pathNumerology {
		t.Errorf("path = %s", be.calls[0].Path)
	}

	if _, err := svc.Tarot(ctx, backend.Call{}, TarotRequest{Question: " Will it rain? ", CardIDs: []int{3, 14}}); err != nil {
		t.Fatal(err)
	}
	var sent TarotRequest
	be.body(t, &sent)
	if sent.Question != "Will it rain?" || len(sent.CardIDs) != 2 {
		t.Errorf("tarot body = %+v", sent)
	}
}

func TestSearchDreams_Query(t *testing.T) {
	be := &mockBackend{}
	svc := NewFortuneService(be)

	if _, err := svc.SearchDreams(context.Background(), backend.Call{}, DreamQuery{Q: " rắn ", Page: 0}); err != nil {
		t.Fatal(err)
	}
	call := be.calls[0]
	if call.Method != http.MethodGet || call.Path != pathDreams || call.Body != nil {
		t.Errorf("call = %+v", call)
	}
	if call.Query.Get("q") != "rắn" || call.Query.Get("page") != "1" {
		t.Errorf("query = %v", call.Query)
	}
	if call.Query.Has("pageSize") {
		t.Error("pageSize should be omitted when unset")
	}
}

func TestDestiny_BackendErrorPassesThrough(t *testing.T) {
	be := &mockBackend{
		doFn: func(ctx context.Context, call backend.Call) (*backend.Result, error) {
			return nil, &backend.Error{Status: http.StatusBadRequest, Code: "INSUFFICIENT_BALANCE"}
		},
	}
	svc := NewFortuneService(be)

	_, err := svc.Destiny(context.Background(), backend.Call{}, DestinyRequest{Name: "An"})
	be2, ok := backend.AsError(err)
	if !ok || be2.Code != "INSUFFICIENT_BALANCE" {
		t.Errorf("expected backend error to pass through, got %v", err)
	}
}
