package llm

import "context"

// GenerationRequest carries a stored prompt and its sampling settings.
type GenerationRequest struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// GeneratedPost is the Markdown article produced for a prompt.
type GeneratedPost struct {
	Title    string
	Markdown string
}

// PostGenerator writes a blog post for a prompt.
type PostGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GeneratedPost, error)
}
