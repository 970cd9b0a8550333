package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

type recordingServer struct {
	mu     sync.Mutex
	bodies []map[string]any
	auth   []string
}

func (s *recordingServer) record(t *testing.T, r *http.Request) int {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		t.Errorf("decode request: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies = append(s.bodies, payload)
	s.auth = append(s.auth, r.Header.Get("Authorization"))
	return len(s.bodies)
}

func newTestClient(t *testing.T, url, model string) *Client {
	t.Helper()
	client, err := NewClient(Options{APIKey: "test-key", Model: model, BaseURL: url})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestGenerateReturnsTrimmedContent(t *testing.T) {
	rec := &recordingServer{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		rec.record(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Dear Hiring Manager,\n\nHello.  "}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "gpt-4o-mini")
	text, err := client.Generate(context.Background(), "write a letter")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Dear Hiring Manager,\n\nHello." {
		t.Fatalf("unexpected text: %q", text)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.auth[0] != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %q", rec.auth[0])
	}
	msgs, _ := rec.bodies[0]["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	if _, ok := rec.bodies[0]["temperature"]; !ok {
		t.Fatalf("expected temperature for non gpt-5 model")
	}
}

func TestGenerateOmitsTemperatureForGPT5(t *testing.T) {
	rec := &recordingServer{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(t, r)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "gpt-5-mini")
	if _, err := client.Generate(context.Background(), "prompt"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if _, ok := rec.bodies[0]["temperature"]; ok {
		t.Fatalf("expected temperature to be omitted for gpt-5 models")
	}
}

func TestGenerateRetriesWithoutTemperature(t *testing.T) {
	rec := &recordingServer{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := rec.record(t, r)
		if call == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Unsupported value: 'temperature' does not support 0.7 with this model.","type":"invalid_request_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "o3-mini")
	if _, err := client.Generate(context.Background(), "prompt"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.bodies) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(rec.bodies))
	}
	if _, ok := rec.bodies[1]["temperature"]; ok {
		t.Fatalf("expected retry request to omit temperature")
	}
}

func TestGenerateSurfacesProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "api error", status: http.StatusUnauthorized, body: `{"error":{"message":"bad key","type":"invalid_request_error"}}`, wantErr: "bad key"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "missing choices"},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"   "}}]}`, wantErr: "empty content"},
		{name: "non json", status: http.StatusBadGateway, body: `upstream down`, wantErr: "status 502"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL, "gpt-4o-mini")
			_, err := client.Generate(context.Background(), "prompt")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
			if calls != 1 {
				t.Fatalf("expected exactly one call, got %d", calls)
			}
		})
	}
}

func TestNewClientRequiresKeyAndModel(t *testing.T) {
	if _, err := NewClient(Options{Model: "gpt-4o-mini"}); err == nil {
		t.Fatalf("expected error without api key")
	}
	if _, err := NewClient(Options{APIKey: "k"}); err == nil {
		t.Fatalf("expected error without model")
	}
}
