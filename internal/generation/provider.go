package generation

import "context"

// Image is binary image data sent alongside a prompt.
type Image struct {
	MIMEType string
	Data     []byte
}

// CompletionRequest is a single prepared call to a provider.
type CompletionRequest struct {
	System      string
	Prompt      string
	Image       *Image
	Temperature float32
	MaxTokens   int
	// JSON asks the provider to answer with a JSON object.
	JSON bool
}

// Provider is the boundary between the application core and an external
// generative AI service. Implementations issue exactly one network call per
// Complete invocation and never retry internally.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Complete sends req and returns the raw text content of the answer.
	//
	// Parameters:
	//   - ctx: Context for the operation, bounding the call
	//   - req: The prepared prompt, optional image and sampling settings
	//
	// Returns:
	//   - The raw textual content produced by the model
	//   - An error carrying enough information (status, message) to classify it
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// KeyProbeResult is the outcome of a remote credential check.
type KeyProbeResult struct {
	ModelCount int
}

// KeyProber is implemented by providers that can verify their credential
// against the remote service.
type KeyProber interface {
	VerifyKey(ctx context.Context) (KeyProbeResult, error)
}
