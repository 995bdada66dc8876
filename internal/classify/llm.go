package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brainvault/brainvault-server/internal/domain"
	"github.com/brainvault/brainvault-server/internal/llm"
)

const classifySystemPrompt = `You label short personal ideas. Reply with a single JSON object and nothing else:
{"project": "...", "theme": "...", "emotion": "..."}
project: the product, app, or initiative the idea belongs to, 1-3 words, or "".
theme: the broad subject area, 1-3 words, or "".
emotion: one lowercase word such as excited, happy, curious, concerned, frustrated, or "".`

// LLMClassifier asks a chat model for labels.
type LLMClassifier struct {
	completer llm.Completer
}

// NewLLMClassifier creates a classifier backed by completer.
func NewLLMClassifier(completer llm.Completer) *LLMClassifier {
	return &LLMClassifier{completer: completer}
}

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, content string) (domain.Classification, error) {
	reply, err := c.completer.Complete(ctx, classifySystemPrompt, content)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classify: %w", err)
	}

	labels, err := parseLabels(reply)
	if err != nil {
		return domain.Classification{}, err
	}
	labels.Emotion = strings.ToLower(labels.Emotion)
	return labels.Normalize(), nil
}

// parseLabels extracts the first JSON object from reply; models often wrap
// it in prose or code fences.
func parseLabels(reply string) (domain.Classification, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return domain.Classification{}, fmt.Errorf("classify: no JSON object in reply %q", truncateReply(reply))
	}

	var labels domain.Classification
	if err := json.Unmarshal([]byte(reply[start:end+1]), &labels); err != nil {
		return domain.Classification{}, fmt.Errorf("classify: decode reply: %w", err)
	}
	return labels, nil
}

func truncateReply(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
