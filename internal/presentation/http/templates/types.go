package templates

// SiteName is shown in page titles and the shared header.
const SiteName = "promptpress"

// PostSummaryView is one entry on the index page.
type PostSummaryView struct {
	Title   string
	URL     string
	Date    string
	Excerpt string
}

// IndexPageData lists published posts.
type IndexPageData struct {
	Posts []PostSummaryView
}

// PostPageData holds a rendered post.
type PostPageData struct {
	Title       string
	Date        string
	AuthorName  string
	AuthorImage string
	CoverImage  string
	OGImage     string
	Excerpt     string
	HTML        string
}

// ErrorPageData holds information for rendering an error view.
type ErrorPageData struct {
	StatusLabel string
	Message     string
}
