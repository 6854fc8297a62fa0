package content

import (
	"context"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	domainllm "promptpress/app/internal/domain/llm"
	"promptpress/app/internal/platform/markdown"
	"promptpress/app/internal/platform/slug"
)

// Service exposes post and prompt operations to the presentation layer.
type Service interface {
	GetPost(ctx context.Context, id string) (*Post, error)
	ListPosts(ctx context.Context) ([]Post, error)
	CreatePost(ctx context.Context, post *Post) (*Post, error)
	DestroyPost(ctx context.Context, id string) error
	GetPrompt(ctx context.Context, id string) (*Prompt, error)
	ListPrompts(ctx context.Context) ([]PromptSummary, error)
	CreatePrompt(ctx context.Context, prompt *Prompt) (*Prompt, error)
	PublishFromPrompt(ctx context.Context, promptID string) (*Post, error)
}

// ServiceOptions configures a Service. Clock and IDs are overridable for tests.
type ServiceOptions struct {
	Posts     PostRepository
	Prompts   PromptRepository
	Generator domainllm.PostGenerator
	Author    Author
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
	Now       func() time.Time
	NewID     func() string
}

type service struct {
	posts     PostRepository
	prompts   PromptRepository
	generator domainllm.PostGenerator
	author    Author
	logger    *logrus.Logger
	sentryHub *sentry.Hub
	now       func() time.Time
	newID     func() string
}

var _ Service = (*service)(nil)

// NewService wires the content service with its dependencies. The generator is
// optional; without one PublishFromPrompt fails.
func NewService(opts ServiceOptions) (Service, error) {
	if opts.Posts == nil {
		return nil, eris.New("post repository is required")
	}
	if opts.Prompts == nil {
		return nil, eris.New("prompt repository is required")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}

	return &service{
		posts:     opts.Posts,
		prompts:   opts.Prompts,
		generator: opts.Generator,
		author:    opts.Author,
		logger:    opts.Logger,
		sentryHub: opts.SentryHub,
		now:       now,
		newID:     newID,
	}, nil
}

func (s *service) GetPost(ctx context.Context, id string) (*Post, error) {
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		s.recordError(logrus.Fields{"id": id}, err, "retrieving post")
		return nil, eris.Wrapf(err, "retrieving post %s", id)
	}
	return post, nil
}

func (s *service) ListPosts(ctx context.Context) ([]Post, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		s.recordError(nil, err, "listing posts")
		return nil, eris.Wrap(err, "listing posts")
	}
	return posts, nil
}

// CreatePost stores post, assigning an id, timestamp and slug when they are missing.
func (s *service) CreatePost(ctx context.Context, post *Post) (*Post, error) {
	if post == nil {
		return nil, eris.New("post is required")
	}

	stored := *post
	if strings.TrimSpace(stored.ID) == "" {
		stored.ID = s.newID()
	}
	if stored.CreatedAtMs == 0 {
		stored.CreatedAtMs = s.now().UnixMilli()
	}
	if stored.Slug == "" {
		stored.Slug = slug.Generate(stored.Title)
	}

	if err := s.posts.CreatePost(ctx, &stored); err != nil {
		return nil, s.createFailure(logrus.Fields{"id": stored.ID}, err, "creating post")
	}
	return &stored, nil
}

func (s *service) DestroyPost(ctx context.Context, id string) error {
	if err := s.posts.DestroyPost(ctx, id); err != nil {
		s.recordError(logrus.Fields{"id": id}, err, "destroying post")
		return eris.Wrapf(err, "destroying post %s", id)
	}
	return nil
}

func (s *service) GetPrompt(ctx context.Context, id string) (*Prompt, error) {
	prompt, err := s.prompts.GetPrompt(ctx, id)
	if err != nil {
		s.recordError(logrus.Fields{"id": id}, err, "retrieving prompt")
		return nil, eris.Wrapf(err, "retrieving prompt %s", id)
	}
	return prompt, nil
}

func (s *service) ListPrompts(ctx context.Context) ([]PromptSummary, error) {
	prompts, err := s.prompts.ListPrompts(ctx)
	if err != nil {
		s.recordError(nil, err, "listing prompts")
		return nil, eris.Wrap(err, "listing prompts")
	}
	return prompts, nil
}

// CreatePrompt stores prompt, assigning an id and timestamp when they are missing.
func (s *service) CreatePrompt(ctx context.Context, prompt *Prompt) (*Prompt, error) {
	if prompt == nil {
		return nil, eris.New("prompt is required")
	}

	stored := *prompt
	if strings.TrimSpace(stored.ID) == "" {
		stored.ID = s.newID()
	}
	if stored.CreatedAtMs == 0 {
		stored.CreatedAtMs = s.now().UnixMilli()
	}

	if err := s.prompts.CreatePrompt(ctx, &stored); err != nil {
		return nil, s.createFailure(logrus.Fields{"id": stored.ID}, err, "creating prompt")
	}
	return &stored, nil
}

// PublishFromPrompt generates a post from the stored prompt and inserts it.
func (s *service) PublishFromPrompt(ctx context.Context, promptID string) (*Post, error) {
	if s.generator == nil {
		return nil, eris.New("post generator is not configured")
	}

	fields := logrus.Fields{"prompt_id": promptID}

	prompt, err := s.GetPrompt(ctx, promptID)
	if err != nil {
		return nil, err
	}
	if prompt == nil {
		return nil, eris.Wrapf(ErrPromptNotFound, "publishing prompt %s", promptID)
	}

	generated, err := s.generator.Generate(ctx, domainllm.GenerationRequest{
		Prompt:      prompt.Prompt,
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
	})
	if err != nil {
		s.recordError(fields, err, "generating post from prompt")
		return nil, eris.Wrapf(err, "generating post for prompt %s", promptID)
	}

	title := strings.TrimSpace(generated.Title)
	body := strings.TrimSpace(generated.Markdown)
	if title == "" || body == "" {
		err := eris.New("generated post is missing a title or body")
		s.recordError(fields, err, "validating generated post")
		return nil, err
	}

	excerpt, err := markdown.Excerpt(body, markdown.DefaultExcerptLength)
	if err != nil {
		s.recordError(fields, err, "building excerpt")
		return nil, eris.Wrap(err, "building excerpt")
	}

	now := s.now().UTC()
	post := &Post{
		ID:          s.newID(),
		PromptID:    prompt.ID,
		Slug:        slug.Generate(title),
		Title:       title,
		Date:        now.Format(time.RFC3339),
		Author:      s.author,
		Excerpt:     excerpt,
		Content:     body,
		CreatedAtMs: now.UnixMilli(),
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, s.createFailure(logrus.Fields{"id": post.ID, "prompt_id": promptID}, err, "publishing post")
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"id": post.ID, "prompt_id": promptID, "slug": post.Slug}).Info("published post from prompt")
	}

	return post, nil
}

// createFailure wraps a failed create. Conditional failures are expected
// outcomes and are not reported to Sentry.
func (s *service) createFailure(fields logrus.Fields, err error, message string) error {
	if !eris.Is(err, ErrConditionalWriteFailed) {
		s.recordError(fields, err, message)
	}
	return eris.Wrap(err, message)
}

func (s *service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}
