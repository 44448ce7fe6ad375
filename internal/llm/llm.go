package llm

import "context"

// LLM is the uniform facade over one bound backend+model. A backend is
// selected once per run via NewFromConfig; orchestrators never re-dispatch
// per call.
type LLM interface {
	// Complete returns a single blocking completion.
	Complete(ctx context.Context, prompt string) (string, error)

	// StreamComplete invokes onDelta for each incremental text fragment in
	// arrival order and returns the accumulated text. A non-nil error from
	// onDelta stops upstream token generation promptly.
	StreamComplete(ctx context.Context, prompt string, onDelta func(delta string) error) (string, error)

	// StructuredComplete coerces the model's output into out, which must be
	// a pointer to a JSON-unmarshalable struct. When out implements
	// Validate() error, the coerced value is validated; parse or validation
	// failures after retrying surface as an error.
	StructuredComplete(ctx context.Context, prompt string, out any) error
}

// structuredAttempts is how many times a structured call is tried before the
// contract violation is surfaced.
const structuredAttempts = 2

type validator interface {
	Validate() error
}

func validateStructured(out any) error {
	if v, ok := out.(validator); ok {
		return v.Validate()
	}
	return nil
}
