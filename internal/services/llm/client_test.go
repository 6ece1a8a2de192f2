package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"cinematch/internal/services"
)

func contentResponse(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"finish_reason": "stop",
				"message":       map[string]any{"content": content},
			},
		},
	}
}

func newReplyServer(t *testing.T, reply func(call int32, r *http.Request) (int, any)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		status, body := reply(n, r)
		if status != http.StatusOK {
			w.WriteHeader(status)
		}
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestClientHealthCheck(t *testing.T) {
	server, _ := newReplyServer(t, func(_ int32, r *http.Request) (int, any) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("Authorization = %q", got)
		}
		return http.StatusOK, contentResponse(`{"ok":true}`)
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server, _ := newReplyServer(t, func(int32, *http.Request) (int, any) {
		return http.StatusUnauthorized, map[string]string{"error": "unauthorized"}
	})

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	err := client.HealthCheck(context.Background())
	if err == nil {
		t.Fatal("expected health check to fail")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if errors.Is(err, services.ErrTransient) {
		t.Fatalf("401 should not be transient: %v", err)
	}
}

func TestCompleteJSONRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error without api key")
	}
	if client.Configured() {
		t.Fatal("client without key should not report configured")
	}
}

func TestGenderParsesAnswers(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "male", content: `{"gender":"MALE"}`, want: GenderMale},
		{name: "female fenced", content: "```json\n{\"gender\":\"female\"}\n```", want: GenderFemale},
		{name: "unisex", content: `{"gender":"UNISEX"}`, want: GenderUnisex},
		{name: "unknown answer", content: `{"gender":"n/a"}`, want: GenderUnisex},
		{name: "prose wrapped", content: `Sure: {"gender":"MALE"} hope that helps`, want: GenderMale},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, _ := newReplyServer(t, func(_ int32, r *http.Request) (int, any) {
				var req chatCompletionRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode request: %v", err)
				}
				if len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, `"Andrea"`) {
					t.Errorf("unexpected messages: %#v", req.Messages)
				}
				if req.ResponseFormat["type"] != jsonResponseType {
					t.Errorf("response_format = %v", req.ResponseFormat)
				}
				return http.StatusOK, contentResponse(tc.content)
			})
			client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
			got, err := client.Gender(context.Background(), "Andrea")
			if err != nil {
				t.Fatalf("Gender returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Gender = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsFirstName(t *testing.T) {
	server, _ := newReplyServer(t, func(_ int32, r *http.Request) (int, any) {
		var req chatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if strings.Contains(req.Messages[1].Content, "Giarrusso") {
			return http.StatusOK, contentResponse(`{"first_name":false}`)
		}
		return http.StatusOK, contentResponse(`{"first_name":true}`)
	})
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})

	ok, err := client.IsFirstName(context.Background(), "Nicolás")
	if err != nil || !ok {
		t.Fatalf("IsFirstName(Nicolás) = %v, %v", ok, err)
	}
	ok, err = client.IsFirstName(context.Background(), "Giarrusso")
	if err != nil || ok {
		t.Fatalf("IsFirstName(Giarrusso) = %v, %v", ok, err)
	}
}

func TestToolCallArgumentsAccepted(t *testing.T) {
	server, _ := newReplyServer(t, func(int32, *http.Request) (int, any) {
		return http.StatusOK, map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "tool_calls",
					"message": map[string]any{
						"content": "",
						"tool_calls": []any{
							map[string]any{"function": map[string]any{"arguments": `{"gender":"FEMALE"}`}},
						},
					},
				},
			},
		}
	})
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	got, err := client.Gender(context.Background(), "Lucrecia")
	if err != nil {
		t.Fatalf("Gender returned error: %v", err)
	}
	if got != GenderFemale {
		t.Fatalf("Gender = %q", got)
	}
}

func TestEmptyContentErrorHasSnippet(t *testing.T) {
	server, _ := newReplyServer(t, func(int32, *http.Request) (int, any) {
		return http.StatusOK, contentResponse("")
	})
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.CompleteJSON(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected completion to fail")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	server, calls := newReplyServer(t, func(call int32, _ *http.Request) (int, any) {
		if call == 1 {
			return http.StatusTooManyRequests, map[string]string{"error": "rate limited"}
		}
		return http.StatusOK, contentResponse(`{"first_name":true}`)
	})

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(time.Second, 10*time.Second),
		WithRetryMaxAttempts(3),
	)
	ok, err := client.IsFirstName(context.Background(), "Nora")
	if err != nil {
		t.Fatalf("IsFirstName returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected first name")
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	server, calls := newReplyServer(t, func(int32, *http.Request) (int, any) {
		return http.StatusBadRequest, map[string]string{"error": "bad model"}
	})
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(5),
	)
	if _, err := client.Gender(context.Background(), "Nora"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestLimiterWaitHonoursCancellation(t *testing.T) {
	server, calls := newReplyServer(t, func(int32, *http.Request) (int, any) {
		return http.StatusOK, contentResponse(`{"ok":true}`)
	})
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"}, WithLimiter(limiter))

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("first HealthCheck: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := client.HealthCheck(ctx); err == nil {
		t.Fatal("expected limiter wait to fail")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected the second request to be throttled, got %d calls", calls.Load())
	}
}

func TestNewClientDerivesLimiterFromConfig(t *testing.T) {
	client := NewClient(Config{APIKey: "test", RequestsPerMinute: 120})
	if client.limiter == nil {
		t.Fatal("expected limiter")
	}
	if got := client.limiter.Limit(); got != rate.Every(500*time.Millisecond) {
		t.Fatalf("limit = %v", got)
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	var out struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON("```\n{\"ok\":true}\n```", &out); err != nil || !out.OK {
		t.Fatalf("fenced payload: %v %v", out, err)
	}
	if err := DecodeLLMJSON("", &out); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if err := DecodeLLMJSON("not json at all", &out); err == nil {
		t.Fatal("expected error for prose payload")
	}
}
