package transform

import (
	"context"
	"fmt"
	"strings"
)

// TemplateGenerator renders fixed per-kind text around the idea. It works
// offline and is the fallback when no model is reachable.
type TemplateGenerator struct{}

// Name implements Generator.
func (TemplateGenerator) Name() string { return "template" }

// Generate implements Generator.
func (TemplateGenerator) Generate(_ context.Context, kind Kind, content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}

	switch kind {
	case KindContent:
		return fmt.Sprintf("%s\n\nExpanded Content:\n"+
			"This idea can be developed into a longer piece by describing the problem it solves, "+
			"who benefits, and what a first version would look like.", content), nil
	case KindIP:
		return fmt.Sprintf("Intellectual Property Analysis: %s\n"+
			"- Patent considerations\n"+
			"- Copyright elements\n"+
			"- Trademark opportunities\n"+
			"- Trade secret aspects", content), nil
	case KindTasks:
		return fmt.Sprintf("Actionable Tasks: %s\n"+
			"1. Research and validate the idea\n"+
			"2. Create a detailed plan\n"+
			"3. Identify required resources\n"+
			"4. Set milestones and timelines", content), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
