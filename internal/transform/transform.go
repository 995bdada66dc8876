// Package transform turns idea content into derived text: long-form content,
// an intellectual property analysis, or an actionable task list.
package transform

import (
	"context"
	"errors"
	"fmt"
)

// Kind selects the derived output.
type Kind string

// Supported output kinds.
const (
	KindContent Kind = "content"
	KindIP      Kind = "ip"
	KindTasks   Kind = "tasks"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindContent, KindIP, KindTasks}

// Valid reports whether k is supported.
func (k Kind) Valid() bool {
	switch k {
	case KindContent, KindIP, KindTasks:
		return true
	default:
		return false
	}
}

// ErrUnknownKind is returned for a kind outside Kinds.
var ErrUnknownKind = errors.New("unknown output kind")

// ErrEmptyContent is returned when there is nothing to transform.
var ErrEmptyContent = errors.New("idea content is empty")

// Generator produces derived text for one idea.
type Generator interface {
	Generate(ctx context.Context, kind Kind, content string) (string, error)
	// Name identifies the generator in responses and metrics.
	Name() string
}

// UnavailableError means the generator could not serve the request and a
// fallback may be used.
type UnavailableError struct {
	Generator string
	Err       error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return e.Generator + " unavailable"
	}
	return fmt.Sprintf("%s unavailable: %v", e.Generator, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Strategy calls Primary and falls back to Fallback when Primary reports
// an *UnavailableError. Other errors are returned as is.
type Strategy struct {
	Primary  Generator
	Fallback Generator
}

// Generate returns the output and the name of the generator that served it.
func (s Strategy) Generate(ctx context.Context, kind Kind, content string) (string, string, error) {
	if !kind.Valid() {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if s.Primary != nil {
		out, err := s.Primary.Generate(ctx, kind, content)
		if err == nil {
			return out, s.Primary.Name(), nil
		}
		var unavailable *UnavailableError
		if !errors.As(err, &unavailable) || s.Fallback == nil {
			return "", s.Primary.Name(), err
		}
	}

	if s.Fallback == nil {
		return "", "", &UnavailableError{Generator: "transform"}
	}
	out, err := s.Fallback.Generate(ctx, kind, content)
	if err != nil {
		return "", s.Fallback.Name(), err
	}
	return out, s.Fallback.Name(), nil
}
