package keywords

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/zonghaoyuan/hotwords-cn/internal/config"
	"github.com/zonghaoyuan/hotwords-cn/internal/prompt"
)

func TestParseKeywordsCommaSeparated(t *testing.T) {
	got := parseKeywords("人工智能, 新能源汽车 , 世界杯")
	want := []string{"人工智能", "新能源汽车", "世界杯"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseKeywords = %v, want %v", got, want)
	}
}

func TestParseKeywordsFullWidthComma(t *testing.T) {
	got := parseKeywords("春晚，高考，房价")
	if len(got) != 3 || got[0] != "春晚" {
		t.Errorf("unexpected keywords: %v", got)
	}
}

func TestParseKeywordsLineSeparated(t *testing.T) {
	got := parseKeywords("- keyword one\n- keyword two\n- keyword three")
	want := []string{"keyword one", "keyword two", "keyword three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseKeywords = %v, want %v", got, want)
	}
}

func TestParseKeywordsEmpty(t *testing.T) {
	if got := parseKeywords("   \n  "); got != nil {
		t.Errorf("expected nil for blank completion, got %v", got)
	}
}

func TestParseKeywordsPreservesOrder(t *testing.T) {
	got := parseKeywords("c, a, b")
	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order not preserved: %v", got)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(&config.LLMConfig{Provider: "gemini"}, "", prompt.Default()); err == nil {
		t.Error("expected error for empty API key")
	}
	if _, err := New(nil, "key", prompt.Default()); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(&config.LLMConfig{Provider: "llama"}, "key", prompt.Default()); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewDefaultsToGemini(t *testing.T) {
	ex, err := New(&config.LLMConfig{}, "key", prompt.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g, ok := ex.(*geminiProvider)
	if !ok {
		t.Fatalf("expected gemini provider, got %T", ex)
	}
	if g.model != "gemini-pro" {
		t.Errorf("expected default model gemini-pro, got %q", g.model)
	}
}

func TestGeminiExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"A, B, C"}]}}]}`))
	}))
	defer srv.Close()

	g := &geminiProvider{
		apiKey:  "test-key",
		model:   "gemini-pro",
		tmpl:    prompt.Default(),
		baseURL: srv.URL,
		client:  &http.Client{Timeout: time.Second},
	}

	got, err := g.Extract(context.Background(), "微博", []string{"标题一", "标题二"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestGeminiExtractAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := &geminiProvider{
		apiKey:  "k",
		model:   "gemini-pro",
		tmpl:    prompt.Default(),
		baseURL: srv.URL,
		client:  &http.Client{Timeout: time.Second},
	}

	_, err := g.Extract(context.Background(), "微博", []string{"x"})
	var ee *ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *ExtractionError, got %T: %v", err, err)
	}
	if ee.Channel != "微博" {
		t.Errorf("expected channel in error, got %q", ee.Channel)
	}
}

func TestGeminiExtractEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	g := &geminiProvider{
		apiKey:  "k",
		model:   "gemini-pro",
		tmpl:    prompt.Default(),
		baseURL: srv.URL,
		client:  &http.Client{Timeout: time.Second},
	}

	var ee *ExtractionError
	if _, err := g.Extract(context.Background(), "微博", []string{"x"}); !errors.As(err, &ee) {
		t.Fatalf("expected *ExtractionError for empty response, got %v", err)
	}
}

func TestOpenAIExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"alpha, beta"}}]}`))
	}))
	defer srv.Close()

	o := &openaiProvider{
		apiKey:  "test-key",
		model:   "gpt-4o-mini",
		tmpl:    prompt.Default(),
		baseURL: srv.URL,
		client:  &http.Client{Timeout: time.Second},
	}

	got, err := o.Extract(context.Background(), "Zhihu", []string{"t1"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 2 || got[0] != "alpha" {
		t.Errorf("unexpected keywords: %v", got)
	}
}
