package content

import domaincontent "promptpress/app/internal/domain/content"

const (
	postKind   = "post"
	promptKind = "prompt"
)

// postItem is the stored shape of a post: the domain fields plus the discriminator.
type postItem struct {
	ID          string                `json:"id" dynamodbav:"id"`
	Type        string                `json:"type" dynamodbav:"type"`
	PromptID    string                `json:"promptId" dynamodbav:"promptId"`
	Slug        string                `json:"slug" dynamodbav:"slug"`
	Title       string                `json:"title" dynamodbav:"title"`
	Date        string                `json:"date" dynamodbav:"date"`
	CoverImage  string                `json:"coverImage" dynamodbav:"coverImage"`
	Author      domaincontent.Author  `json:"author" dynamodbav:"author"`
	Excerpt     string                `json:"excerpt" dynamodbav:"excerpt"`
	OGImage     domaincontent.OGImage `json:"ogImage" dynamodbav:"ogImage"`
	Content     string                `json:"content" dynamodbav:"content"`
	CreatedAtMs int64                 `json:"createdAtMs" dynamodbav:"createdAtMs"`
	DeletedAtMs *int64                `json:"deletedAtMs,omitempty" dynamodbav:"deletedAtMs,omitempty"`
}

// promptItem is the stored shape of a prompt.
type promptItem struct {
	ID          string  `json:"id" dynamodbav:"id"`
	Type        string  `json:"type" dynamodbav:"type"`
	Prompt      string  `json:"prompt" dynamodbav:"prompt"`
	Temperature float64 `json:"temperature" dynamodbav:"temperature"`
	MaxTokens   int     `json:"maxTokens" dynamodbav:"maxTokens"`
	CreatedAtMs int64   `json:"createdAtMs" dynamodbav:"createdAtMs"`
	Hidden      *bool   `json:"hidden,omitempty" dynamodbav:"hidden,omitempty"`
}

func newPostItem(post *domaincontent.Post) postItem {
	return postItem{
		ID:          post.ID,
		Type:        postKind,
		PromptID:    post.PromptID,
		Slug:        post.Slug,
		Title:       post.Title,
		Date:        post.Date,
		CoverImage:  post.CoverImage,
		Author:      post.Author,
		Excerpt:     post.Excerpt,
		OGImage:     post.OGImage,
		Content:     post.Content,
		CreatedAtMs: post.CreatedAtMs,
		DeletedAtMs: post.DeletedAtMs,
	}
}

func (i postItem) toDomain() domaincontent.Post {
	return domaincontent.Post{
		ID:          i.ID,
		PromptID:    i.PromptID,
		Slug:        i.Slug,
		Title:       i.Title,
		Date:        i.Date,
		CoverImage:  i.CoverImage,
		Author:      i.Author,
		Excerpt:     i.Excerpt,
		OGImage:     i.OGImage,
		Content:     i.Content,
		CreatedAtMs: i.CreatedAtMs,
		DeletedAtMs: i.DeletedAtMs,
	}
}

func newPromptItem(prompt *domaincontent.Prompt) promptItem {
	return promptItem{
		ID:          prompt.ID,
		Type:        promptKind,
		Prompt:      prompt.Prompt,
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
		CreatedAtMs: prompt.CreatedAtMs,
		Hidden:      prompt.Hidden,
	}
}

func (i promptItem) toDomain() domaincontent.Prompt {
	return domaincontent.Prompt{
		ID:          i.ID,
		Prompt:      i.Prompt,
		Temperature: i.Temperature,
		MaxTokens:   i.MaxTokens,
		CreatedAtMs: i.CreatedAtMs,
		Hidden:      i.Hidden,
	}
}
