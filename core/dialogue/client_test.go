package dialogue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExchangeRoundTrip(t *testing.T) {
	var received ExchangeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}

		json.NewEncoder(w).Encode(ExchangeResponse{
			Response:     "Let me help...",
			Emotion:      "warm",
			CurrentStage: StageUnderstand,
			StageName:    "Understand",
			TrustScore:   6,
			Missteps:     []Misstep{},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	response, err := client.Exchange(context.Background(), ExchangeRequest{
		SessionID:    "session-1",
		Message:      "I need a quieter mattress",
		PersonaID:    "director",
		CurrentStage: StageProbe,
		TrustScore:   5,
		ConversationHistory: []HistoryEntry{
			{Role: RoleAssistant, Content: "I don't have much time."},
		},
	})
	if err != nil {
		t.Fatalf("expected exchange to succeed, got %v", err)
	}

	if received.Message != "I need a quieter mattress" || received.CurrentStage != StageProbe {
		t.Fatalf("unexpected request payload: %+v", received)
	}
	if len(received.ConversationHistory) != 1 || received.ConversationHistory[0].Role != RoleAssistant {
		t.Fatalf("expected prior transcript in request, got %+v", received.ConversationHistory)
	}

	if response.Response != "Let me help..." || response.TrustScore != 6 {
		t.Fatalf("unexpected response: %+v", response)
	}
	if response.StageName != "Understand" || response.CurrentStage != StageUnderstand {
		t.Fatalf("unexpected stage: %+v", response)
	}
}

func TestExchangeHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Exchange(context.Background(), ExchangeRequest{SessionID: "s"}); err == nil {
		t.Fatalf("expected error on HTTP 500")
	}
}

func TestExchangeTimesOut(t *testing.T) {
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	client := NewClient(server.URL, WithExchangeTimeout(50*time.Millisecond))
	start := time.Now()
	if _, err := client.Exchange(context.Background(), ExchangeRequest{SessionID: "s"}); err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("timeout was not bounded")
	}
}

func TestCompleteIgnoresBodyShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/session/complete" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"whatever": ["shape", 42]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.Complete(context.Background(), CompleteRequest{SessionID: "s"}); err != nil {
		t.Fatalf("expected completion to succeed regardless of body shape, got %v", err)
	}
}

func TestEndsSession(t *testing.T) {
	response := &ExchangeResponse{Missteps: []Misstep{
		{ID: "pushy_close", Severity: "sales"},
		{ID: "inappropriate_remark", Severity: "critical", EndsSession: true},
	}}
	if !response.EndsSession() {
		t.Fatalf("expected session-ending misstep to be detected")
	}

	response.Missteps = response.Missteps[:1]
	if response.EndsSession() {
		t.Fatalf("expected non-ending missteps to leave the session open")
	}
}

func TestStageName(t *testing.T) {
	if StageName(StageEarn) != "Earn" {
		t.Fatalf("unexpected stage name: %q", StageName(StageEarn))
	}
	if StageName(0) != "" || StageName(6) != "" {
		t.Fatalf("expected empty name outside the 1-5 range")
	}
}
