package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// templateKey selects the extraction prompt inside the prompt file, which can
// hold several named prompts.
const templateKey = "keyword_extraction"

// defaultTemplate matches the prompt the tool ships with. {channel} and
// {text_input} are substituted at render time.
const defaultTemplate = "从以下「{channel}」热榜文本中提取5到10个核心SEO关键词。请确保关键词简洁明了，能准确概括文本主旨。只返回关键词列表，用逗号分隔：\n\n---\n文本开始：\n{text_input}\n文本结束\n---"

// Template is an immutable prompt template for keyword extraction.
type Template struct {
	text string
}

// Default returns the built-in extraction template.
func Default() Template {
	return Template{text: defaultTemplate}
}

// Load reads the prompt file (a JSON object mapping prompt names to template
// strings). A missing file falls back to the default template; a present but
// malformed file is a configuration error and aborts the run.
func Load(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Template{}, fmt.Errorf("reading prompt file: %w", err)
	}

	var prompts map[string]string
	if err := json.Unmarshal(data, &prompts); err != nil {
		return Template{}, fmt.Errorf("parsing prompt file %s: %w", path, err)
	}

	text, ok := prompts[templateKey]
	if !ok || strings.TrimSpace(text) == "" {
		return Default(), nil
	}
	return Template{text: text}, nil
}

// Render substitutes the channel name and the newline-joined item texts into
// the template.
func (t Template) Render(channel string, texts []string) string {
	out := strings.ReplaceAll(t.text, "{channel}", channel)
	return strings.ReplaceAll(out, "{text_input}", strings.Join(texts, "\n"))
}
