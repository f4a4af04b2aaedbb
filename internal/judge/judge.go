// Package judge defines the judgment delegate boundary: a collaborator that
// turns a free-form prompt into a parsed structure, or reports a typed
// extraction failure. The engine's planner, analyzer, and validator all
// consume this interface; none of them ever sees a silently missing field.
package judge

import "context"

// Delegate produces a best-effort parsed structure for a prompt.
// On failure it returns *errors.ExtractionError, never a partial or nil
// structure with a nil error.
type Delegate interface {
	Judge(ctx context.Context, prompt string) (map[string]any, error)
}

// Func adapts a plain function to the Delegate interface.
type Func func(ctx context.Context, prompt string) (map[string]any, error)

// Judge calls f.
func (f Func) Judge(ctx context.Context, prompt string) (map[string]any, error) {
	return f(ctx, prompt)
}
