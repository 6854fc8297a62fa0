package openai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
	"github.com/openai/openai-go/v2/shared/constant"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	domainllm "promptpress/app/internal/domain/llm"
)

// GeneratorOptions configures the chat-completion backed post generator.
type GeneratorOptions struct {
	Client       *Client
	Model        string
	SystemPrompt string
}

type generator struct {
	client         *Client
	logger         *logrus.Logger
	model          string
	systemPrompt   string
	responseFormat openai.ChatCompletionNewParamsResponseFormatUnion
}

const defaultGeneratorSystemPrompt = `You write posts for a small blog.
Answer the reader's prompt with a complete article in GitHub-flavoured Markdown.
Do not repeat the title as a heading at the top of the body.
Return JSON that matches the provided schema.`

var _ domainllm.PostGenerator = (*generator)(nil)

// NewGenerator constructs a PostGenerator backed by the chat completion API.
func NewGenerator(opts GeneratorOptions) (domainllm.PostGenerator, error) {
	if opts.Client == nil {
		return nil, eris.New("llm client is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("generator model is required")
	}

	systemPrompt := strings.TrimSpace(opts.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultGeneratorSystemPrompt
	}

	return &generator{
		client:         opts.Client,
		logger:         opts.Client.logger,
		model:          model,
		systemPrompt:   systemPrompt,
		responseFormat: buildPostResponseFormat(),
	}, nil
}

func (g *generator) Generate(ctx context.Context, req domainllm.GenerationRequest) (*domainllm.GeneratedPost, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, eris.New("prompt is required")
	}
	if req.Temperature < 0 {
		return nil, eris.Errorf("temperature must not be negative: %v", req.Temperature)
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(g.systemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: g.responseFormat,
		Temperature:    openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	fields := logrus.Fields{"model": g.model}

	completion, err := g.client.chat.New(ctx, params)
	if err != nil {
		g.logError(fields, err, "requesting chat completion")
		return nil, eris.Wrap(err, "requesting chat completion")
	}

	if len(completion.Choices) == 0 {
		err := eris.New("llm completion returned no choices")
		g.logError(fields, err, "processing chat completion")
		return nil, err
	}

	choice := completion.Choices[0]
	if reason := strings.TrimSpace(choice.FinishReason); strings.EqualFold(reason, "content_filter") {
		err := eris.New("llm blocked the request via content filter")
		g.logError(fields, err, "generator blocked")
		return nil, err
	}

	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		err := eris.Errorf("llm refused to generate content: %s", refusal)
		g.logError(fields, err, "generator refused")
		return nil, err
	}

	post, err := parsePayload(choice.Message.Content)
	if err != nil {
		g.logError(fields, err, "parsing llm response")
		return nil, err
	}

	return post, nil
}

type postPayload struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

func parsePayload(raw string) (*domainllm.GeneratedPost, error) {
	trimmed := stripCodeFence(strings.TrimSpace(raw))
	if trimmed == "" {
		return nil, eris.New("llm response content is empty")
	}

	var payload postPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil, eris.Wrap(err, "decoding llm response json")
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		return nil, eris.New("llm response missing title field")
	}

	body := strings.TrimSpace(payload.Markdown)
	if body == "" {
		return nil, eris.New("llm response missing markdown field")
	}

	return &domainllm.GeneratedPost{Title: title, Markdown: body}, nil
}

// stripCodeFence unwraps a response the model wrapped in a ``` block despite the schema.
func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}

	body := content[3:]
	newline := strings.IndexByte(body, '\n')
	if newline == -1 {
		return content
	}
	body = body[newline+1:]

	trimmedBody := strings.TrimRight(body, " \t\r\n")
	if !strings.HasSuffix(trimmedBody, "```") {
		return content
	}

	return strings.TrimSpace(trimmedBody[:len(trimmedBody)-3])
}

func (g *generator) logError(fields logrus.Fields, err error, message string) {
	if g.logger == nil || err == nil {
		return
	}

	entry := g.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func buildPostResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"title", "markdown"},
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Short headline for the post.",
			},
			"markdown": map[string]any{
				"type":        "string",
				"description": "Body of the post in Markdown, without the title heading.",
			},
		},
	}

	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        "blog_post",
				Description: openai.String("Generated blog post"),
				Strict:      openai.Bool(true),
				Schema:      schema,
			},
			Type: constant.ValueOf[constant.JSONSchema](),
		},
	}
}
