package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arovik/healthmate/internal/config"
	"github.com/arovik/healthmate/internal/openai"
	"github.com/arovik/healthmate/internal/tools"
)

// echoUpstream answers every completion request with a reply that embeds the
// last user message, so tests can tell which history the model saw.
func echoUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode upstream request: %v", err)
		}
		last := req.Messages[len(req.Messages)-1]
		content, _ := json.Marshal(fmt.Sprintf("echo[%d]: %s", len(req.Messages), last.Content))
		fmt.Fprintf(w, `{"choices": [{"message": {"role": "assistant", "content": %s}, "finish_reason": "stop"}]}`, content)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, withTools bool) *httptest.Server {
	t.Helper()

	upstream := echoUpstream(t)
	cfg := config.DefaultConfig()
	client := openai.NewClient(openai.Config{BaseURL: upstream.URL, Model: "gpt-4o-mini"})

	var registry *tools.Registry
	if withTools {
		registry = tools.NewRegistry()
		tools.RegisterHealthTools(registry)
	}

	srv := httptest.NewServer(New(cfg, client, registry, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func TestChatIssuesSessionID(t *testing.T) {
	srv := newTestServer(t, false)

	resp, body := postJSON(t, srv.URL+"/chat", map[string]string{"message": "hello"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}

	id, _ := body["session_id"].(string)
	if id == "" {
		t.Fatal("expected a server-issued session_id")
	}
	answer, _ := body["response"].(string)
	if !strings.Contains(answer, "hello") {
		t.Errorf("response = %q", answer)
	}
}

func TestChatContinuesSession(t *testing.T) {
	srv := newTestServer(t, false)

	_, first := postJSON(t, srv.URL+"/chat", map[string]string{"message": "first"})
	id := first["session_id"].(string)

	_, second := postJSON(t, srv.URL+"/chat", map[string]string{
		"message":    "second",
		"session_id": id,
	})

	if second["session_id"] != id {
		t.Errorf("session_id changed: %v -> %v", id, second["session_id"])
	}

	// The echo upstream reports history length: system + (user, assistant)
	// from turn one + the new user message = 4.
	answer := second["response"].(string)
	if !strings.HasPrefix(answer, "echo[4]:") {
		t.Errorf("second turn should see the full prior history, got %q", answer)
	}
}

func TestChatSessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t, false)

	_, a := postJSON(t, srv.URL+"/chat", map[string]string{"message": "from a"})
	_, b := postJSON(t, srv.URL+"/chat", map[string]string{"message": "from b"})

	if a["session_id"] == b["session_id"] {
		t.Fatal("independent clients must get distinct sessions")
	}

	// Both turns start from a fresh history (system + user = 2 messages).
	for _, body := range []map[string]any{a, b} {
		answer := body["response"].(string)
		if !strings.HasPrefix(answer, "echo[2]:") {
			t.Errorf("fresh session saw a shared history: %q", answer)
		}
	}
}

func TestChatRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, false)

	resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid JSON: status = %d, want 400", resp.StatusCode)
	}

	resp2, body := postJSON(t, srv.URL+"/chat", map[string]string{"message": ""})
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("empty message: status = %d, want 400", resp2.StatusCode)
	}
	if body["error"] == "" {
		t.Error("error body should name the problem")
	}
}

func TestChatUpstreamFailureReturns500(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	client := openai.NewClient(openai.Config{BaseURL: upstream.URL, Model: "gpt-4o-mini"})
	srv := httptest.NewServer(New(config.DefaultConfig(), client, nil, nil).Handler())
	defer srv.Close()

	resp, body := postJSON(t, srv.URL+"/chat", map[string]string{"message": "hello"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if _, ok := body["error"].(string); !ok {
		t.Errorf("expected error body, got %v", body)
	}
}

func TestSymptomLogRoundTrip(t *testing.T) {
	srv := newTestServer(t, false)

	resp, body := postJSON(t, srv.URL+"/symptoms", map[string]string{"symptom": "headache"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	id := body["session_id"].(string)

	// Duplicate logging appends a second entry.
	postJSON(t, srv.URL+"/symptoms", map[string]string{"symptom": "headache", "session_id": id})

	getResp, err := http.Get(srv.URL + "/symptoms?session_id=" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()

	var got struct {
		Symptoms []struct {
			Symptom   string `json:"symptom"`
			Timestamp string `json:"timestamp"`
		} `json:"symptoms"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(getResp.Body).Decode(&got); err != nil {
		t.Fatalf("decode symptoms: %v", err)
	}

	if got.SessionID != id {
		t.Errorf("session_id = %q, want %q", got.SessionID, id)
	}
	if len(got.Symptoms) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got.Symptoms))
	}
	for _, e := range got.Symptoms {
		if e.Symptom != "headache" || e.Timestamp == "" {
			t.Errorf("entry = %+v", e)
		}
	}
}

func TestSymptomLogIsolatedPerSession(t *testing.T) {
	srv := newTestServer(t, false)

	_, a := postJSON(t, srv.URL+"/symptoms", map[string]string{"symptom": "fever"})
	aid := a["session_id"].(string)

	_, b := postJSON(t, srv.URL+"/symptoms", map[string]string{"symptom": "cough"})
	bid := b["session_id"].(string)

	if aid == bid {
		t.Fatal("separate clients must get separate symptom logs")
	}

	getResp, err := http.Get(srv.URL + "/symptoms?session_id=" + aid)
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()

	var got struct {
		Symptoms []struct {
			Symptom string `json:"symptom"`
		} `json:"symptoms"`
	}
	json.NewDecoder(getResp.Body).Decode(&got)

	if len(got.Symptoms) != 1 || got.Symptoms[0].Symptom != "fever" {
		t.Errorf("session a's log = %+v", got.Symptoms)
	}
}

func TestSymptomRejectsEmpty(t *testing.T) {
	srv := newTestServer(t, false)

	resp, _ := postJSON(t, srv.URL+"/symptoms", map[string]string{"symptom": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, true)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, false)

	resp, err := http.Get(srv.URL + "/chat")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /chat status = %d, want 405", resp.StatusCode)
	}
}
