package http

import (
	"context"
	stdhttp "net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"promptpress/app/internal/domain/content"
)

type idInput struct {
	ID string `path:"id" minLength:"1" doc:"Record identifier"`
}

type authorBody struct {
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

type ogImageBody struct {
	URL string `json:"url,omitempty"`
}

type createPostInput struct {
	Body struct {
		ID         string      `json:"id,omitempty" doc:"Generated when omitted"`
		PromptID   string      `json:"promptId,omitempty"`
		Slug       string      `json:"slug,omitempty" doc:"Derived from the title when omitted"`
		Title      string      `json:"title" minLength:"1"`
		Date       string      `json:"date,omitempty"`
		CoverImage string      `json:"coverImage,omitempty"`
		Author     authorBody  `json:"author,omitempty"`
		Excerpt    string      `json:"excerpt,omitempty"`
		OGImage    ogImageBody `json:"ogImage,omitempty"`
		Content    string      `json:"content"`
	}
}

type createPromptInput struct {
	Body struct {
		ID          string  `json:"id,omitempty" doc:"Generated when omitted"`
		Prompt      string  `json:"prompt" minLength:"1"`
		Temperature float64 `json:"temperature,omitempty" minimum:"0" maximum:"2"`
		MaxTokens   int     `json:"maxTokens,omitempty" minimum:"0"`
		Hidden      *bool   `json:"hidden,omitempty"`
	}
}

type postOutput struct {
	Body *content.Post
}

type postListOutput struct {
	Body []content.Post
}

type promptOutput struct {
	Body *content.Prompt
}

type promptListOutput struct {
	Body []content.PromptSummary
}

func (s *Server) registerPostAPIRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-posts",
		Method:      stdhttp.MethodGet,
		Path:        "/api/posts",
		Summary:     "List posts",
		Tags:        []string{"posts"},
	}, s.listPostsHandler)

	huma.Register(s.api, huma.Operation{
		OperationID:   "create-post",
		Method:        stdhttp.MethodPost,
		Path:          "/api/posts",
		Summary:       "Create a post",
		Tags:          []string{"posts"},
		DefaultStatus: stdhttp.StatusCreated,
	}, s.createPostHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-post",
		Method:      stdhttp.MethodGet,
		Path:        "/api/posts/{id}",
		Summary:     "Fetch a post",
		Tags:        []string{"posts"},
	}, s.getPostHandler)

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete-post",
		Method:        stdhttp.MethodDelete,
		Path:          "/api/posts/{id}",
		Summary:       "Delete a post",
		Tags:          []string{"posts"},
		DefaultStatus: stdhttp.StatusNoContent,
	}, s.deletePostHandler)
}

func (s *Server) registerPromptAPIRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-prompts",
		Method:      stdhttp.MethodGet,
		Path:        "/api/prompts",
		Summary:     "List prompts",
		Tags:        []string{"prompts"},
	}, s.listPromptsHandler)

	huma.Register(s.api, huma.Operation{
		OperationID:   "create-prompt",
		Method:        stdhttp.MethodPost,
		Path:          "/api/prompts",
		Summary:       "Create a prompt",
		Tags:          []string{"prompts"},
		DefaultStatus: stdhttp.StatusCreated,
	}, s.createPromptHandler)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-prompt",
		Method:      stdhttp.MethodGet,
		Path:        "/api/prompts/{id}",
		Summary:     "Fetch a prompt",
		Tags:        []string{"prompts"},
	}, s.getPromptHandler)

	huma.Register(s.api, huma.Operation{
		OperationID:   "publish-prompt",
		Method:        stdhttp.MethodPost,
		Path:          "/api/prompts/{id}/publish",
		Summary:       "Generate and publish a post from a prompt",
		Tags:          []string{"prompts"},
		DefaultStatus: stdhttp.StatusCreated,
	}, s.publishPromptHandler)
}

func (s *Server) listPostsHandler(ctx context.Context, _ *struct{}) (*postListOutput, error) {
	posts, err := s.content.ListPosts(ctx)
	if err != nil {
		return nil, s.apiError(ctx, err, "listing posts", nil)
	}
	return &postListOutput{Body: posts}, nil
}

func (s *Server) createPostHandler(ctx context.Context, input *createPostInput) (*postOutput, error) {
	body := input.Body
	post := &content.Post{
		ID:         strings.TrimSpace(body.ID),
		PromptID:   body.PromptID,
		Slug:       body.Slug,
		Title:      body.Title,
		Date:       body.Date,
		CoverImage: body.CoverImage,
		Author:     content.Author{Name: body.Author.Name, Picture: body.Author.Picture},
		Excerpt:    body.Excerpt,
		OGImage:    content.OGImage{URL: body.OGImage.URL},
		Content:    body.Content,
	}

	created, err := s.content.CreatePost(ctx, post)
	if err != nil {
		return nil, s.apiError(ctx, err, "creating post", logrus.Fields{"id": post.ID})
	}
	return &postOutput{Body: created}, nil
}

func (s *Server) getPostHandler(ctx context.Context, input *idInput) (*postOutput, error) {
	post, err := s.content.GetPost(ctx, input.ID)
	if err != nil {
		return nil, s.apiError(ctx, err, "fetching post", logrus.Fields{"id": input.ID})
	}
	if post == nil {
		return nil, huma.Error404NotFound("post not found")
	}
	return &postOutput{Body: post}, nil
}

func (s *Server) deletePostHandler(ctx context.Context, input *idInput) (*struct{}, error) {
	if err := s.content.DestroyPost(ctx, input.ID); err != nil {
		return nil, s.apiError(ctx, err, "deleting post", logrus.Fields{"id": input.ID})
	}
	return nil, nil
}

func (s *Server) listPromptsHandler(ctx context.Context, _ *struct{}) (*promptListOutput, error) {
	prompts, err := s.content.ListPrompts(ctx)
	if err != nil {
		return nil, s.apiError(ctx, err, "listing prompts", nil)
	}
	return &promptListOutput{Body: prompts}, nil
}

func (s *Server) createPromptHandler(ctx context.Context, input *createPromptInput) (*promptOutput, error) {
	body := input.Body
	prompt := &content.Prompt{
		ID:          strings.TrimSpace(body.ID),
		Prompt:      body.Prompt,
		Temperature: body.Temperature,
		MaxTokens:   body.MaxTokens,
		Hidden:      body.Hidden,
	}

	created, err := s.content.CreatePrompt(ctx, prompt)
	if err != nil {
		return nil, s.apiError(ctx, err, "creating prompt", logrus.Fields{"id": prompt.ID})
	}
	return &promptOutput{Body: created}, nil
}

func (s *Server) getPromptHandler(ctx context.Context, input *idInput) (*promptOutput, error) {
	prompt, err := s.content.GetPrompt(ctx, input.ID)
	if err != nil {
		return nil, s.apiError(ctx, err, "fetching prompt", logrus.Fields{"id": input.ID})
	}
	if prompt == nil {
		return nil, huma.Error404NotFound("prompt not found")
	}
	return &promptOutput{Body: prompt}, nil
}

func (s *Server) publishPromptHandler(ctx context.Context, input *idInput) (*postOutput, error) {
	post, err := s.content.PublishFromPrompt(ctx, input.ID)
	if err != nil {
		return nil, s.apiError(ctx, err, "publishing prompt", logrus.Fields{"prompt_id": input.ID})
	}
	return &postOutput{Body: post}, nil
}

// apiError maps domain errors onto problem responses. Only unexpected failures are recorded.
func (s *Server) apiError(ctx context.Context, err error, message string, fields logrus.Fields) error {
	switch {
	case eris.Is(err, content.ErrConditionalWriteFailed):
		return huma.Error409Conflict("a record with this id already exists")
	case eris.Is(err, content.ErrPromptNotFound):
		return huma.Error404NotFound("prompt not found")
	default:
		s.recordError(ctx, err, message, fields)
		return huma.Error500InternalServerError(errorFallbackMessage)
	}
}
