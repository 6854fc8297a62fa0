package legacy

import (
	"fmt"

	"promptpress/app/internal/domain/content"
)

// PostFields are the fields a legacy post contributes when it is imported as a Post.
var PostFields = []string{"slug", "title", "date", "coverImage", "author", "excerpt", "ogImage", "content"}

// ToPost maps an entry loaded with PostFields onto a Post. Identity and timestamps are left to the caller.
func ToPost(entry Entry) content.Post {
	post := content.Post{
		Slug:       entry.text("slug"),
		Title:      entry.text("title"),
		Date:       entry.date(),
		CoverImage: entry.text("coverImage"),
		Excerpt:    entry.text("excerpt"),
		Content:    entry.text("content"),
	}

	if author, ok := entry["author"].(map[string]any); ok {
		post.Author = content.Author{
			Name:    stringValue(author["name"]),
			Picture: stringValue(author["picture"]),
		}
	}

	if image, ok := entry["ogImage"].(map[string]any); ok {
		post.OGImage = content.OGImage{URL: stringValue(image["url"])}
	}

	return post
}

func (e Entry) text(field string) string {
	return stringValue(e[field])
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
