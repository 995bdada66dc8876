// Package classify assigns project, theme, and emotion labels to idea content.
package classify

import (
	"context"
	"errors"
	"time"

	"github.com/brainvault/brainvault-server/internal/domain"
)

// Classifier labels idea content. An empty Classification with a nil error
// means the content carried no recognizable labels.
type Classifier interface {
	Classify(ctx context.Context, content string) (domain.Classification, error)
}

// Func adapts a function to the Classifier interface.
type Func func(ctx context.Context, content string) (domain.Classification, error)

// Classify calls f.
func (f Func) Classify(ctx context.Context, content string) (domain.Classification, error) {
	return f(ctx, content)
}

// Chain tries each classifier in order and returns the first success.
// If every classifier fails the errors are joined.
type Chain []Classifier

// Classify runs the chain.
func (c Chain) Classify(ctx context.Context, content string) (domain.Classification, error) {
	var errs []error
	for _, cl := range c {
		labels, err := cl.Classify(ctx, content)
		if err == nil {
			return labels.Normalize(), nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return domain.Classification{}, nil
	}
	return domain.Classification{}, errors.Join(errs...)
}

// WithTimeout bounds every Classify call on c to d.
func WithTimeout(c Classifier, d time.Duration) Classifier {
	if d <= 0 {
		return c
	}
	return Func(func(ctx context.Context, content string) (domain.Classification, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return c.Classify(ctx, content)
	})
}
