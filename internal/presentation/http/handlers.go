package http

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"promptpress/app/internal/data/database"
	"promptpress/app/internal/platform/markdown"
	"promptpress/app/internal/presentation/http/templates"
)

const (
	htmlContentType      = "text/html; charset=utf-8"
	errorFallbackMessage = "We couldn't process your request right now."
)

type htmlResponse struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type healthResponse struct {
	Status int
	Body   struct {
		Status string `json:"status"`
		Store  string `json:"store"`
	}
}

func (s *Server) registerPageRoutes() {
	huma.Get(s.api, "/", s.indexHandler, htmlOperation("List published posts", stdhttp.StatusInternalServerError))
	huma.Get(s.api, "/posts/{id}", s.postPageHandler, htmlOperation(
		"Read a post",
		stdhttp.StatusNotFound,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) indexHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	posts, err := s.content.ListPosts(ctx)
	if err != nil {
		s.recordError(ctx, err, "listing posts for index", nil)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, "We couldn't load the posts right now.")
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date > posts[j].Date
	})

	data := templates.IndexPageData{Posts: make([]templates.PostSummaryView, 0, len(posts))}
	for _, post := range posts {
		data.Posts = append(data.Posts, templates.PostSummaryView{
			Title:   post.Title,
			URL:     "/posts/" + post.ID,
			Date:    post.Date,
			Excerpt: post.Excerpt,
		})
	}

	body, err := renderComponent(ctx, templates.IndexPage(data))
	if err != nil {
		s.recordError(ctx, err, "rendering index page", nil)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, "We couldn't render the posts right now.")
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) postPageHandler(ctx context.Context, input *idInput) (*htmlResponse, error) {
	id := strings.TrimSpace(input.ID)
	fields := logrus.Fields{"id": id}

	post, err := s.content.GetPost(ctx, id)
	if err != nil {
		s.recordError(ctx, err, "loading post", fields)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, errorFallbackMessage)
	}
	if post == nil {
		return s.renderErrorResponse(ctx, stdhttp.StatusNotFound, "We couldn't find that post.")
	}

	html, err := markdown.ToHTML(post.Content)
	if err != nil {
		s.recordError(ctx, err, "rendering post markdown", fields)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, errorFallbackMessage)
	}

	body, err := renderComponent(ctx, templates.PostPage(templates.PostPageData{
		Title:       post.Title,
		Date:        post.Date,
		AuthorName:  post.Author.Name,
		AuthorImage: post.Author.Picture,
		CoverImage:  post.CoverImage,
		OGImage:     post.OGImage.URL,
		Excerpt:     post.Excerpt,
		HTML:        html,
	}))
	if err != nil {
		s.recordError(ctx, err, "rendering post page", fields)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, errorFallbackMessage)
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{Status: stdhttp.StatusOK}
	resp.Body.Status = "ok"
	resp.Body.Store = "ok"

	if s.db == nil {
		return resp, nil
	}

	sqlDB, err := database.SQLDB(s.db)
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		s.recordError(ctx, err, "pinging database", logrus.Fields{"backend": s.storeBackend})
		resp.Status = stdhttp.StatusServiceUnavailable
		resp.Body.Status = "degraded"
		resp.Body.Store = "error"
	}

	return resp, nil
}

func newHTMLResponse(status int, body []byte) *htmlResponse {
	return &htmlResponse{
		Status:      status,
		ContentType: htmlContentType,
		Body:        body,
	}
}

func htmlOperation(summary string, statuses ...int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		if summary != "" {
			op.Summary = summary
		}
		op.Tags = []string{"pages"}
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}

		statusCodes := append([]int{stdhttp.StatusOK}, statuses...)
		for _, status := range statusCodes {
			code := strconv.Itoa(status)
			op.Responses[code] = &huma.Response{
				Description: stdhttp.StatusText(status),
				Content: map[string]*huma.MediaType{
					htmlContentType: {
						Schema: &huma.Schema{Type: "string"},
					},
				},
			}
		}
	}
}

func (s *Server) renderErrorResponse(ctx context.Context, status int, message string) (*htmlResponse, error) {
	label := fmt.Sprintf("%d %s", status, stdhttp.StatusText(status))
	body, err := renderComponent(ctx, templates.ErrorPage(templates.ErrorPageData{
		StatusLabel: label,
		Message:     message,
	}))
	if err != nil {
		s.recordError(ctx, err, "rendering error page", logrus.Fields{"status": status})
		fallback := []byte(fmt.Sprintf("<html><body><h1>%s</h1><p>%s</p></body></html>", label, message))
		return newHTMLResponse(status, fallback), nil
	}

	return newHTMLResponse(status, body), nil
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
