package content

import "context"

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	GetPost(ctx context.Context, id string) (*Post, error)
	ListPosts(ctx context.Context) ([]Post, error)
	CreatePost(ctx context.Context, post *Post) error
	DestroyPost(ctx context.Context, id string) error
}

// PromptRepository defines persistence operations for prompts.
type PromptRepository interface {
	GetPrompt(ctx context.Context, id string) (*Prompt, error)
	ListPrompts(ctx context.Context) ([]PromptSummary, error)
	CreatePrompt(ctx context.Context, prompt *Prompt) error
}
