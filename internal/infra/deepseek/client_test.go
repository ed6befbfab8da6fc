package deepseek

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fankeji/debtbook/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "test-key"
	return New(cfg, zerolog.Nop())
}

func TestComplete_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var body struct {
			Model    string    `json:"model"`
			Messages []Message `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("messages = %+v, want system prompt first", body.Messages)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "张三，记得还钱哦"}},
			},
		})
	})

	got, err := c.Complete(context.Background(), "你是一个高情商催收助手。", "改写这条催收信息")
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if got != "张三，记得还钱哦" {
		t.Errorf("Complete() = %q", got)
	}
}

func TestComplete_MissingContentPathIsEmptyString(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"x","choices":[]}`))
	})

	got, err := c.Complete(context.Background(), "", "hi")
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if got != "" {
		t.Errorf("Complete() = %q, want empty string", got)
	}
}

func TestComplete_ErrorString(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	})

	_, err := c.Complete(context.Background(), "", "hi")
	if !errors.Is(err, domain.ErrChatUnavailable) {
		t.Fatalf("error = %v, want ErrChatUnavailable", err)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error %q should carry the upstream message", err)
	}
}

func TestComplete_ErrorObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	})

	_, err := c.Complete(context.Background(), "", "hi")
	if err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("error = %v, want upstream message", err)
	}
}

func TestComplete_UnparseableFailureIsGeneric(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`upstream exploded`))
	})

	_, err := c.Complete(context.Background(), "", "hi")
	if !errors.Is(err, domain.ErrChatUnavailable) {
		t.Fatalf("error = %v, want ErrChatUnavailable", err)
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error %q should mention the status", err)
	}
}

func TestComplete_TransportFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "http://127.0.0.1:1" // nothing listens here
	c := New(cfg, zerolog.Nop())

	_, err := c.Complete(context.Background(), "", "hi")
	if !errors.Is(err, domain.ErrChatUnavailable) {
		t.Errorf("error = %v, want ErrChatUnavailable", err)
	}
}

func TestExtractContent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"happy path", `{"choices":[{"message":{"content":"hello"}}]}`, "hello"},
		{"no choices", `{"choices":[]}`, ""},
		{"missing message", `{"choices":[{}]}`, ""},
		{"not json", `nope`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractContent([]byte(tt.raw)); got != tt.want {
				t.Errorf("ExtractContent() = %q, want %q", got, tt.want)
			}
		})
	}
}
