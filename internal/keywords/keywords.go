package keywords

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zonghaoyuan/hotwords-cn/internal/config"
	"github.com/zonghaoyuan/hotwords-cn/internal/prompt"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com"
	openaiBaseURL = "https://api.openai.com"
)

// ExtractionError reports a failed LLM call or an unusable completion for one
// channel.
type ExtractionError struct {
	Channel string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting keywords for %s: %v", e.Channel, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor turns a channel's hot-list texts into an ordered keyword list.
type Extractor interface {
	Extract(ctx context.Context, channel string, texts []string) ([]string, error)
}

// New creates an Extractor from the LLM config.
func New(cfg *config.LLMConfig, apiKey string, tmpl prompt.Template) (Extractor, error) {
	if cfg == nil || apiKey == "" {
		return nil, fmt.Errorf("LLM not configured")
	}

	client := &http.Client{Timeout: 30 * time.Second}

	switch cfg.Provider {
	case "", "gemini":
		model := cfg.Model
		if model == "" {
			model = "gemini-pro"
		}
		return &geminiProvider{apiKey: apiKey, model: model, tmpl: tmpl, baseURL: geminiBaseURL, client: client}, nil
	case "openai":
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return &openaiProvider{apiKey: apiKey, model: model, tmpl: tmpl, baseURL: openaiBaseURL, client: client}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (valid: gemini, openai)", cfg.Provider)
	}
}

// parseKeywords splits a completion into keywords. The prompt asks for a
// comma-separated list, but models also answer with full-width commas or one
// keyword per line, so both are tolerated.
func parseKeywords(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '，' || r == '、'
	})
	if len(parts) < 2 && strings.Contains(text, "\n") {
		parts = strings.Split(text, "\n")
	}

	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimLeft(p, "•-* \t")
		p = strings.TrimSpace(strings.TrimSuffix(p, "。"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// --- Gemini provider ---

type geminiProvider struct {
	apiKey  string
	model   string
	tmpl    prompt.Template
	baseURL string
	client  *http.Client
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *geminiProvider) Extract(ctx context.Context, channel string, texts []string) ([]string, error) {
	text, err := g.call(ctx, g.tmpl.Render(channel, texts))
	if err != nil {
		return nil, &ExtractionError{Channel: channel, Err: err}
	}
	kws := parseKeywords(text)
	if len(kws) == 0 {
		return nil, &ExtractionError{Channel: channel, Err: fmt.Errorf("no keywords in completion %q", text)}
	}
	return kws, nil
}

func (g *geminiProvider) call(ctx context.Context, p string) (string, error) {
	body, _ := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: p}}}},
	})

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gemini API %d: %s", resp.StatusCode, string(b))
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", err
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty gemini response")
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// --- OpenAI provider ---

type openaiProvider struct {
	apiKey  string
	model   string
	tmpl    prompt.Template
	baseURL string
	client  *http.Client
}

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *openaiProvider) Extract(ctx context.Context, channel string, texts []string) ([]string, error) {
	text, err := o.call(ctx, o.tmpl.Render(channel, texts))
	if err != nil {
		return nil, &ExtractionError{Channel: channel, Err: err}
	}
	kws := parseKeywords(text)
	if len(kws) == 0 {
		return nil, &ExtractionError{Channel: channel, Err: fmt.Errorf("no keywords in completion %q", text)}
	}
	return kws, nil
}

func (o *openaiProvider) call(ctx context.Context, p string) (string, error) {
	body, _ := json.Marshal(openaiRequest{
		Model:    o.model,
		Messages: []openaiMessage{{Role: "user", Content: p}},
	})

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("openai API %d: %s", resp.StatusCode, string(b))
	}

	var or openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return "", err
	}
	if len(or.Choices) == 0 {
		return "", fmt.Errorf("empty openai response")
	}
	return or.Choices[0].Message.Content, nil
}
