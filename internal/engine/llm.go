package engine

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// Completer is the text-generation collaborator: system instructions plus a
// user payload in, raw model text out.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, system, user string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// NewLLMCompleter builds the OpenAI-compatible chat client from cfg.
// Model, temperature and max tokens are fixed per client.
func NewLLMCompleter(cfg *Config) Completer {
	client := llm.NewClient(cfg.LLMAPIBase, cfg.LLMAPIKey, cfg.LLMModel,
		llm.WithFallbackKeys(cfg.LLMAPIKeyFallbacks),
		llm.WithMaxTokens(cfg.LLMMaxTokens),
		llm.WithTemperature(cfg.LLMTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
	)
	return CompleterFunc(func(ctx context.Context, system, user string) (string, error) {
		metrics.LLMCalls.Add(1)
		out, err := client.Complete(ctx, system, user)
		if err != nil {
			metrics.LLMErrors.Add(1)
			return "", err
		}
		return out, nil
	})
}

// StripFences removes surrounding whitespace and an optional markdown code
// fence (``` or ```json, with or without a language tag) from model output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSuffix(strings.TrimRight(s, " \t\r\n"), "```")
	return strings.TrimSpace(s)
}
