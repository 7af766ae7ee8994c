package provider_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mariandamblena/speechAi-sub000/internal/provider"
)

func newTestClient(baseURL string) *provider.Client {
	return provider.NewClient(baseURL, "test-api-key", slog.New(slog.DiscardHandler))
}

func TestStartCall_Success(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/create-phone-call" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"call_id": "call-123"})
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).StartCall(context.Background(), provider.StartCallInput{
		ToNumber:  "+56911111001",
		AgentID:   "agent-1",
		Variables: map[string]string{"debtor_name": "Ana"},
	})

	if !res.Success || res.CallID != "call-123" {
		t.Fatalf("result = %+v, want success with call-123", res)
	}
	if gotAuth != "Bearer test-api-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody["to_number"] != "+56911111001" || gotBody["agent_id"] != "agent-1" {
		t.Errorf("request body = %v", gotBody)
	}
}

func TestStartCall_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"call_id": "call-123"})
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).StartCall(context.Background(), provider.StartCallInput{
		ToNumber: "+56911111001",
		AgentID:  "agent-1",
	})

	if !res.Success {
		t.Fatalf("result = %+v, want success after retries", res)
	}
	if hits.Load() != 3 {
		t.Errorf("server hit %d times, want 3", hits.Load())
	}
}

func TestStartCall_ClientErrorIsDefinitive(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "invalid number"})
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).StartCall(context.Background(), provider.StartCallInput{
		ToNumber: "not-a-number",
		AgentID:  "agent-1",
	})

	if res.Success {
		t.Fatal("want failure on 400")
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (no retry on 4xx)", hits.Load())
	}
}

func TestStartCall_MissingCallIDIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).StartCall(context.Background(), provider.StartCallInput{
		ToNumber: "+56911111001",
		AgentID:  "agent-1",
	})

	if res.Success {
		t.Fatal("want failure when response has no call id")
	}
}

func TestStartCall_NestedCallID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"call_id": "call-nested"},
		})
	}))
	defer srv.Close()

	res := newTestClient(srv.URL).StartCall(context.Background(), provider.StartCallInput{
		ToNumber: "+56911111001",
		AgentID:  "agent-1",
	})

	if !res.Success || res.CallID != "call-nested" {
		t.Fatalf("result = %+v, want call-nested", res)
	}
}

func TestGetCallStatus_TerminalDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/get-call/call-123" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"call_status":   "ended",
			"duration_ms":   95000.0,
			"call_cost":     map[string]any{"combined_cost": 0.42},
			"recording_url": "https://cdn.example.com/rec.mp3",
		})
	}))
	defer srv.Close()

	status := newTestClient(srv.URL).GetCallStatus(context.Background(), "call-123")

	if status.Error != "" {
		t.Fatalf("unexpected error: %s", status.Error)
	}
	if !status.Terminal() || !status.Succeeded() {
		t.Errorf("status %+v, want terminal success", status)
	}
	sum := status.Summary()
	if sum.DurationSeconds != 95 || sum.Cost != 0.42 || sum.RecordingURL == "" {
		t.Errorf("summary = %+v", sum)
	}
}

func TestGetCallStatus_ErrorComesBackAsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	status := newTestClient(srv.URL).GetCallStatus(context.Background(), "call-123")

	if status.Error == "" {
		t.Fatal("want error string on 500")
	}
	if status.Terminal() {
		t.Error("an errored read must not be terminal")
	}
}
