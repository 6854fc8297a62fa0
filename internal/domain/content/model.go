package content

// Author identifies who wrote a post.
type Author struct {
	Name    string `json:"name" dynamodbav:"name"`
	Picture string `json:"picture" dynamodbav:"picture"`
}

// OGImage is the open-graph image attached to a post.
type OGImage struct {
	URL string `json:"url" dynamodbav:"url"`
}

// Post is a published article. Date is a lexicographically sortable string.
type Post struct {
	ID          string  `json:"id" dynamodbav:"id"`
	PromptID    string  `json:"promptId" dynamodbav:"promptId"`
	Slug        string  `json:"slug" dynamodbav:"slug"`
	Title       string  `json:"title" dynamodbav:"title"`
	Date        string  `json:"date" dynamodbav:"date"`
	CoverImage  string  `json:"coverImage" dynamodbav:"coverImage"`
	Author      Author  `json:"author" dynamodbav:"author"`
	Excerpt     string  `json:"excerpt" dynamodbav:"excerpt"`
	OGImage     OGImage `json:"ogImage" dynamodbav:"ogImage"`
	Content     string  `json:"content" dynamodbav:"content"`
	CreatedAtMs int64   `json:"createdAtMs" dynamodbav:"createdAtMs"`
	DeletedAtMs *int64  `json:"deletedAtMs,omitempty" dynamodbav:"deletedAtMs,omitempty"`
}

// Prompt is the generation request a post is written from.
type Prompt struct {
	ID          string  `json:"id" dynamodbav:"id"`
	Prompt      string  `json:"prompt" dynamodbav:"prompt"`
	Temperature float64 `json:"temperature" dynamodbav:"temperature"`
	MaxTokens   int     `json:"maxTokens" dynamodbav:"maxTokens"`
	CreatedAtMs int64   `json:"createdAtMs" dynamodbav:"createdAtMs"`
	Hidden      *bool   `json:"hidden,omitempty" dynamodbav:"hidden,omitempty"`
}

// PromptSummary is the projection returned when listing prompts.
type PromptSummary struct {
	ID      string `json:"id" dynamodbav:"id"`
	Slug    string `json:"slug,omitempty" dynamodbav:"slug,omitempty"`
	Title   string `json:"title,omitempty" dynamodbav:"title,omitempty"`
	Date    string `json:"date,omitempty" dynamodbav:"date,omitempty"`
	Excerpt string `json:"excerpt,omitempty" dynamodbav:"excerpt,omitempty"`
}

// PromptSummaryAttributes lists the attributes projected into a PromptSummary, in order.
var PromptSummaryAttributes = []string{"id", "slug", "title", "date", "excerpt"}
