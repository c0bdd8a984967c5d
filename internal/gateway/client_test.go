package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tagsHandler(names ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		models := make([]map[string]any, 0, len(names))
		for _, n := range names {
			models = append(models, map[string]any{
				"name":        n,
				"model":       n,
				"size":        1 << 30,
				"modified_at": time.Now().Format(time.RFC3339),
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"models": models})
	}
}

func TestConnect_SelectsPreferredModel(t *testing.T) {
	tests := []struct {
		name      string
		available []string
		want      string
	}{
		{"preferred present", []string{"qwen2.5:7b", "llama3.2:1b", "mistral:latest"}, "llama3.2:1b"},
		{"prefix match on bare preference", []string{"qwen2.5:7b", "llama3.2:3b-instruct"}, "llama3.2:3b-instruct"},
		{"no preference match falls back to first", []string{"qwen2.5:7b", "deepseek-r1:8b"}, "qwen2.5:7b"},
		{"later preference wins over earlier list position", []string{"mistral:latest", "gemma2:2b"}, "gemma2:2b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
			mux.HandleFunc("/api/tags", tagsHandler(tt.available...))
			srv := httptest.NewServer(mux)
			defer srv.Close()

			c := NewClient(srv.URL, time.Minute, 16, testLogger())
			if !c.Connect(context.Background()) {
				t.Fatal("expected connect to succeed")
			}
			if c.Status() != StatusConnected {
				t.Errorf("expected status connected, got %s", c.Status())
			}
			current, ok := c.CurrentModel()
			if !ok {
				t.Fatal("expected a current model")
			}
			if current.Name != tt.want {
				t.Errorf("expected model %q, got %q", tt.want, current.Name)
			}
		})
	}
}

func TestConnect_UnreachableService(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Minute, 16, testLogger())
	if c.Connect(context.Background()) {
		t.Fatal("expected connect to fail")
	}
	if c.Status() != StatusError {
		t.Errorf("expected status error, got %s", c.Status())
	}

	// A disconnected gateway must not attempt the network on generate.
	_, err := c.Generate(context.Background(), GenerateRequest{Category: CategoryNotes, Prompt: "test"})
	if err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestConnect_EmptyModelList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	mux.HandleFunc("/api/tags", tagsHandler())
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute, 16, testLogger())
	if c.Connect(context.Background()) {
		t.Fatal("expected connect to fail with no models")
	}
	if c.Status() != StatusError {
		t.Errorf("expected status error, got %s", c.Status())
	}
}

func connectedClient(t *testing.T, generate http.HandlerFunc) (*Client, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	mux.HandleFunc("/api/tags", tagsHandler("llama3.2:1b"))
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		generate(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, time.Minute, 16, testLogger())
	if !c.Connect(context.Background()) {
		t.Fatal("expected connect to succeed")
	}
	return c, &calls
}

func TestGenerate_NonStreaming(t *testing.T) {
	c, _ := connectedClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "llama3.2:1b" {
			t.Errorf("expected selected model in request, got %q", req.Model)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		json.NewEncoder(w).Encode(generateResponse{Response: "  generated text \n", Done: true})
	})

	text, err := c.Generate(context.Background(), GenerateRequest{
		Category:  CategoryNotes,
		Prompt:    "write notes",
		MaxTokens: 100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "generated text" {
		t.Errorf("expected trimmed response, got %q", text)
	}
}

func TestGenerate_StreamingReassembly(t *testing.T) {
	c, _ := connectedClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response":"Hello ","done":false}`)
		fmt.Fprintln(w, `not json at all`)
		fmt.Fprintln(w, `{"response":"study ","done":false}`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `{"response":"world","done":true}`)
		fmt.Fprintln(w, `{"response":"IGNORED AFTER DONE","done":false}`)
	})

	text, err := c.Generate(context.Background(), GenerateRequest{
		Category:  CategoryNotes,
		Prompt:    "stream it",
		MaxTokens: 100,
		Stream:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Hello study world" {
		t.Errorf("expected reassembled stream, got %q", text)
	}
}

func TestGenerate_CacheShortCircuitsNetwork(t *testing.T) {
	c, calls := connectedClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "cached answer", Done: true})
	})

	req := GenerateRequest{Category: CategoryQuestions, Prompt: "same prompt", MaxTokens: 50}
	first, err := c.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("expected identical cached response, got %q and %q", first, second)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 network call, got %d", got)
	}
}

func TestGenerate_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-2xx", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{not json"))
		}},
		{"empty response", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(generateResponse{Response: "   ", Done: true})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := connectedClient(t, tt.handler)
			_, err := c.Generate(context.Background(), GenerateRequest{
				Category: CategoryNotes, Prompt: "p " + tt.name, MaxTokens: 10,
			})
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestGenerateOrFallback_FailsClosed(t *testing.T) {
	c, _ := connectedClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	for _, cat := range []Category{CategorySummary, CategoryQuestions, CategoryExamples, CategoryFlashcards, CategoryNotes, CategoryAnnotations} {
		got := c.GenerateOrFallback(context.Background(), GenerateRequest{
			Category: cat, Prompt: "p " + string(cat), MaxTokens: 10,
		})
		if got != FallbackText(cat) {
			t.Errorf("category %s: expected fallback text, got %q", cat, got)
		}
	}
}

func TestFallbackText_UnknownCategory(t *testing.T) {
	if FallbackText(Category("nonsense")) != FallbackText(CategoryNotes) {
		t.Error("expected unknown category to use the notes fallback")
	}
}
