package templates

import (
	"github.com/a-h/templ"
)

// Layout wraps body in the shared document shell.
func Layout(title, description string, body templ.Component) templ.Component {
	return Join(
		RawHTML(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`),
		RawHTML(`<meta name="viewport" content="width=device-width, initial-scale=1">`),
		RawHTML(`<title>`), Text(title), RawHTML(`</title>`),
		when(description != "", RawHTML(`<meta name="description" content="`), Text(description), RawHTML(`">`)),
		RawHTML(`<link rel="stylesheet" href="/static/style.css"></head><body>`),
		RawHTML(`<header class="site-header"><a href="/">`), Text(SiteName), RawHTML(`</a></header><main>`),
		body,
		RawHTML(`</main></body></html>`),
	)
}

// IndexPage lists posts newest first.
func IndexPage(data IndexPageData) templ.Component {
	items := make([]templ.Component, 0, len(data.Posts)+2)
	items = append(items, RawHTML(`<h1>Posts</h1>`))

	if len(data.Posts) == 0 {
		items = append(items, RawHTML(`<p class="empty">Nothing has been published yet.</p>`))
	}

	for _, post := range data.Posts {
		items = append(items, Join(
			RawHTML(`<article class="post-summary"><h2><a href="`), Text(post.URL), RawHTML(`">`), Text(post.Title), RawHTML(`</a></h2>`),
			when(post.Date != "", RawHTML(`<time>`), Text(post.Date), RawHTML(`</time>`)),
			when(post.Excerpt != "", RawHTML(`<p>`), Text(post.Excerpt), RawHTML(`</p>`)),
			RawHTML(`</article>`),
		))
	}

	return Layout(SiteName, "", Join(items...))
}

// PostPage renders a single post. HTML is trusted output of the Markdown renderer.
func PostPage(data PostPageData) templ.Component {
	body := Join(
		RawHTML(`<article class="post">`),
		when(data.CoverImage != "", RawHTML(`<img class="cover" alt="" src="`), Text(data.CoverImage), RawHTML(`">`)),
		RawHTML(`<h1>`), Text(data.Title), RawHTML(`</h1><p class="byline">`),
		when(data.AuthorImage != "", RawHTML(`<img class="avatar" alt="" src="`), Text(data.AuthorImage), RawHTML(`">`)),
		when(data.AuthorName != "", RawHTML(`<span>`), Text(data.AuthorName), RawHTML(`</span>`)),
		when(data.Date != "", RawHTML(` <time>`), Text(data.Date), RawHTML(`</time>`)),
		RawHTML(`</p><div class="content">`),
		RawHTML(data.HTML),
		RawHTML(`</div></article>`),
	)

	title := data.Title + " | " + SiteName
	return Layout(title, data.Excerpt, body)
}

// ErrorPage renders a status page.
func ErrorPage(data ErrorPageData) templ.Component {
	body := Join(
		RawHTML(`<section class="error"><h1>`), Text(data.StatusLabel), RawHTML(`</h1><p>`), Text(data.Message), RawHTML(`</p>`),
		RawHTML(`<p><a href="/">Back to all posts</a></p></section>`),
	)
	return Layout(data.StatusLabel+" | "+SiteName, "", body)
}
