package transform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brainvault/brainvault-server/internal/llm"
)

const systemPrompt = "You are an AI assistant that helps transform ideas into actionable content."

// prompts holds the user prompt per kind; %s is the idea content.
var prompts = map[Kind]string{
	KindContent: "Transform this idea into engaging content:\n\nOriginal idea: %s\n\n" +
		"Please create compelling content that expands on this idea, making it more detailed and engaging for readers.",
	KindIP: "Transform this idea into intellectual property content:\n\nOriginal idea: %s\n\n" +
		"Please create detailed intellectual property content including:\n" +
		"- Patentable concepts\n- Copyrightable material\n- Trademark considerations\n- Trade secret elements",
	KindTasks: "Transform this idea into actionable tasks:\n\nOriginal idea: %s\n\n" +
		"Please break down this idea into specific, actionable tasks that can be executed to bring this idea to life.\n" +
		"Include timelines, priorities, and resource requirements.",
}

// NamedCompleter is a completer that can report its provider label.
type NamedCompleter interface {
	llm.Completer
	Name() string
}

// LLMGenerator asks chat providers in order and returns the first answer.
// Any provider failure is reported as *UnavailableError once all are exhausted.
type LLMGenerator struct {
	providers []NamedCompleter
}

// NewLLMGenerator creates a generator over providers, tried in order.
// Nil providers are skipped.
func NewLLMGenerator(providers ...NamedCompleter) *LLMGenerator {
	g := &LLMGenerator{}
	for _, p := range providers {
		if p != nil {
			g.providers = append(g.providers, p)
		}
	}
	return g
}

// Name implements Generator.
func (g *LLMGenerator) Name() string {
	if len(g.providers) == 0 {
		return "llm"
	}
	names := make([]string, len(g.providers))
	for i, p := range g.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, "+")
}

// Configured reports whether at least one provider is available.
func (g *LLMGenerator) Configured() bool {
	return len(g.providers) > 0
}

// Generate implements Generator.
func (g *LLMGenerator) Generate(ctx context.Context, kind Kind, content string) (string, error) {
	tmpl, ok := prompts[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}
	if len(g.providers) == 0 {
		return "", &UnavailableError{Generator: g.Name(), Err: llm.ErrNotConfigured}
	}

	prompt := fmt.Sprintf(tmpl, content)
	var errs []error
	for _, p := range g.providers {
		out, err := p.Complete(ctx, systemPrompt, prompt)
		if err == nil {
			return out, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", &UnavailableError{Generator: g.Name(), Err: errors.Join(errs...)}
}
