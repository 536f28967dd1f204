package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func completionBody(content string) string {
	return `{
		"id": "chatcmpl-test",
		"model": "gpt-4o-mini",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": ` + mustJSON(content) + `}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func TestChatCompletion(t *testing.T) {
	var gotReq ChatRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody("Hello there!")))
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL: srv.URL,
		APIKey:  "sk-test",
		Model:   "gpt-4o-mini",
	})

	msg, err := client.ChatCompletion(context.Background(), []ChatMessage{
		{Role: RoleSystem, Content: "You are helpful."},
		{Role: RoleUser, Content: "Hi"},
	}, Options{Temperature: 0.7, MaxTokens: 500})
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}

	if msg.Role != RoleAssistant || msg.Content != "Hello there!" {
		t.Errorf("got message %+v", msg)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q, want Bearer sk-test", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[1].Content != "Hi" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
	if gotReq.Temperature != 0.7 || gotReq.MaxTokens != 500 {
		t.Errorf("sampling params = %v / %v", gotReq.Temperature, gotReq.MaxTokens)
	}
	if len(gotReq.Tools) != 0 || gotReq.ToolChoice != "" {
		t.Errorf("tools should be absent when not requested: %+v", gotReq)
	}
}

func TestChatCompletionAdvertisesTools(t *testing.T) {
	var gotReq ChatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(completionBody("ok")))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Model: "gpt-4o-mini"})

	_, err := client.ChatCompletion(context.Background(), []ChatMessage{
		{Role: RoleUser, Content: "Hi"},
	}, Options{
		Tools: []ToolDefinition{{
			Type: "function",
			Function: FunctionDefinition{
				Name:        "calculate_bmi",
				Description: "Calculate BMI",
				Parameters:  map[string]any{"type": "object"},
			},
		}},
		ToolChoice: "auto",
	})
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}

	if gotReq.ToolChoice != "auto" {
		t.Errorf("tool_choice = %q, want auto", gotReq.ToolChoice)
	}
	if len(gotReq.Tools) != 1 || gotReq.Tools[0].Function.Name != "calculate_bmi" {
		t.Errorf("tools = %+v", gotReq.Tools)
	}
}

func TestChatCompletionNoAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(completionBody("ok")))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Model: "local"})
	if _, err := client.ChatCompletion(context.Background(), []ChatMessage{{Role: RoleUser, Content: "Hi"}}, Options{}); err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization should be absent for empty key, got %q", gotAuth)
	}
}

func TestChatCompletionDecodesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"choices": [{"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{
					"id": "call_abc",
					"type": "function",
					"function": {"name": "calculate_bmi", "arguments": "{\"weight_kg\": 70}"}
				}]
			}, "finish_reason": "tool_calls"}]
		}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Model: "gpt-4o-mini"})
	msg, err := client.ChatCompletion(context.Background(), []ChatMessage{{Role: RoleUser, Content: "bmi?"}}, Options{})
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}

	if len(msg.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(msg.ToolCalls))
	}
	call := msg.ToolCalls[0]
	if call.ID != "call_abc" || call.Function.Name != "calculate_bmi" {
		t.Errorf("tool call = %+v", call)
	}
	if !strings.Contains(call.Function.Arguments, "weight_kg") {
		t.Errorf("arguments = %q", call.Function.Arguments)
	}
}

func TestChatCompletionErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Model: "gpt-4o-mini"})
	_, err := client.ChatCompletion(context.Background(), []ChatMessage{{Role: RoleUser, Content: "Hi"}}, Options{})
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error should carry status and body: %v", err)
	}
}

func TestChatCompletionEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Model: "gpt-4o-mini"})
	_, err := client.ChatCompletion(context.Background(), []ChatMessage{{Role: RoleUser, Content: "Hi"}}, Options{})
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestChatCompletionContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Model: "gpt-4o-mini"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ChatCompletion(ctx, []ChatMessage{{Role: RoleUser, Content: "Hi"}}, Options{})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestModelInfo(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost:9999/v1", Model: "llama3"})
	info := client.ModelInfo()
	if !strings.Contains(info, "llama3") || !strings.Contains(info, "localhost:9999") {
		t.Errorf("ModelInfo = %q", info)
	}
}
