package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"promptpress/app/internal/data/database"
	"promptpress/app/internal/domain/content"
)

func TestCreatePostReturnsCreated(t *testing.T) {
	t.Parallel()

	svc := newStubContentService()
	srv := newTestServer(t, svc, 100)

	rec := serve(srv, "POST", "/api/posts", `{"id":"p1","title":"Hello","content":"# Hi","author":{"name":"Ada"},"ogImage":{"url":"/og.png"}}`)

	if rec.Code != 201 {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var post content.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &post); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if post.ID != "p1" || post.Title != "Hello" || post.Author.Name != "Ada" || post.OGImage.URL != "/og.png" {
		t.Fatalf("unexpected post %+v", post)
	}
	if svc.posts["p1"] == nil {
		t.Fatalf("expected post to reach the service")
	}
}

func TestCreatePostConflictReturns409(t *testing.T) {
	t.Parallel()

	svc := newStubContentService()
	svc.posts["p1"] = &content.Post{ID: "p1"}
	srv := newTestServer(t, svc, 100)

	rec := serve(srv, "POST", "/api/posts", `{"id":"p1","title":"Again","content":""}`)
	if rec.Code != 409 {
		t.Fatalf("expected status 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreatePostRequiresTitle(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newStubContentService(), 100)

	rec := serve(srv, "POST", "/api/posts", `{"content":"x"}`)
	if rec.Code != 422 {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
}

func TestGetPostRoutes(t *testing.T) {
	t.Parallel()

	svc := newStubContentService()
	svc.posts["p1"] = &content.Post{ID: "p1", Title: "Stored"}
	srv := newTestServer(t, svc, 100)

	if rec := serve(srv, "GET", "/api/posts/p1", ""); rec.Code != 200 || !strings.Contains(rec.Body.String(), `"title":"Stored"`) {
		t.Fatalf("expected stored post, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec := serve(srv, "GET", "/api/posts/missing", ""); rec.Code != 404 {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestDeletePostReturnsNoContent(t *testing.T) {
	t.Parallel()

	svc := newStubContentService()
	svc.posts["p1"] = &content.Post{ID: "p1"}
	srv := newTestServer(t, svc, 100)

	if rec := serve(srv, "DELETE", "/api/posts/p1", ""); rec.Code != 204 {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec := serve(srv, "DELETE", "/api/posts/p1", ""); rec.Code != 204 {
		t.Fatalf("expected deleting an absent post to succeed, got %d", rec.Code)
	}
	if svc.posts["p1"] != nil {
		t.Fatalf("expected post to be removed")
	}
}

func TestListRoutesReturnJSONArrays(t *testing.T) {
	t.Parallel()

	svc := newStubContentService()
	svc.summaries = []content.PromptSummary{{ID: "q1", Title: "Prompted"}}
	srv := newTestServer(t, svc, 100)

	rec := serve(srv, "GET", "/api/posts", "")
	if rec.Code != 200 || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve(srv, "GET", "/api/prompts", "")
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var summaries []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(summaries) != 1 || summaries[0]["id"] != "q1" || summaries[0]["title"] != "Prompted" {
		t.Fatalf("unexpected summaries %#v", summaries)
	}
}

func TestPromptRoutes(t *testing.T) {
	t.Parallel()

	svc := newStubContentService()
	srv := newTestServer(t, svc, 100)

	rec := serve(srv, "POST", "/api/prompts", `{"prompt":"Write about Go","temperature":0.4,"maxTokens":300}`)
	if rec.Code != 201 {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var prompt content.Prompt
	if err := json.Unmarshal(rec.Body.Bytes(), &prompt); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if prompt.ID == "" || prompt.Temperature != 0.4 || prompt.MaxTokens != 300 {
		t.Fatalf("unexpected prompt %+v", prompt)
	}

	if rec := serve(srv, "GET", "/api/prompts/"+prompt.ID, ""); rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec := serve(srv, "GET", "/api/prompts/missing", ""); rec.Code != 404 {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestPublishPromptRoute(t *testing.T) {
	t.Parallel()

	svc := newStubContentService()
	svc.prompts["q1"] = &content.Prompt{ID: "q1", Prompt: "x"}
	srv := newTestServer(t, svc, 100)

	rec := serve(srv, "POST", "/api/prompts/q1/publish", "")
	if rec.Code != 201 {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"promptId":"q1"`) {
		t.Fatalf("expected generated post to reference prompt, got %s", rec.Body.String())
	}

	if rec := serve(srv, "POST", "/api/prompts/missing/publish", ""); rec.Code != 404 {
		t.Fatalf("expected status 404 for missing prompt, got %d", rec.Code)
	}
}

func TestAPIReturns500OnStoreFailure(t *testing.T) {
	t.Parallel()

	svc := newStubContentService()
	svc.err = eris.New("dynamodb unavailable")
	srv := newTestServer(t, svc, 100)

	rec := serve(srv, "GET", "/api/posts", "")
	if rec.Code != 500 {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "dynamodb unavailable") {
		t.Fatalf("expected internal error details to be hidden, got %s", rec.Body.String())
	}
}

func TestPostPageRendersMarkdown(t *testing.T) {
	t.Parallel()

	svc := newStubContentService()
	svc.posts["p1"] = &content.Post{ID: "p1", Title: "Rendered", Content: "Some **bold** text", Author: content.Author{Name: "Ada"}}
	srv := newTestServer(t, svc, 100)

	rec := serve(srv, "GET", "/posts/p1", "")
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != htmlContentType {
		t.Fatalf("expected content type %q, got %q", htmlContentType, ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>bold</strong>") || !strings.Contains(body, "<h1>Rendered</h1>") {
		t.Fatalf("expected rendered post, got %s", body)
	}

	missing := serve(srv, "GET", "/posts/nope", "")
	if missing.Code != 404 || !strings.Contains(missing.Body.String(), "We couldn&#39;t find that post.") {
		t.Fatalf("expected 404 page, got %d: %s", missing.Code, missing.Body.String())
	}
}

func TestPostPageDropsStoredScripts(t *testing.T) {
	t.Parallel()

	svc := newStubContentService()
	srv := newTestServer(t, svc, 100)

	created := serve(srv, "POST", "/api/posts", `{"id":"x","title":"Hostile","content":"<script>alert(document.cookie)</script>\n\nplain text"}`)
	if created.Code != 201 {
		t.Fatalf("expected status 201, got %d: %s", created.Code, created.Body.String())
	}

	rec := serve(srv, "GET", "/posts/x", "")
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<script>alert") {
		t.Fatalf("expected stored script to be dropped, got %s", body)
	}
	if !strings.Contains(body, "plain text") {
		t.Fatalf("expected remaining markdown to render, got %s", body)
	}
}

func TestIndexListsNewestFirst(t *testing.T) {
	t.Parallel()

	svc := newStubContentService()
	svc.posts["a"] = &content.Post{ID: "a", Title: "Older", Date: "2023-01-01"}
	svc.posts["b"] = &content.Post{ID: "b", Title: "Newer", Date: "2023-06-01"}
	srv := newTestServer(t, svc, 100)

	rec := serve(srv, "GET", "/", "")
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	newer, older := strings.Index(body, "Newer"), strings.Index(body, "Older")
	if newer < 0 || older < 0 || newer > older {
		t.Fatalf("expected newest post first, got %s", body)
	}
}

func TestHealthRoutePingsDatabase(t *testing.T) {
	t.Parallel()

	gormDB, err := database.Open(database.Options{Path: filepath.Join(t.TempDir(), "health.db")})
	if err != nil {
		t.Fatalf("database.Open returned error: %v", err)
	}

	srv, err := NewServer(Options{
		Content:      newStubContentService(),
		Database:     gormDB,
		StoreBackend: "sqlite",
		Logger:       silentLogger(),
		RateLimiter:  RateLimiterSettings{RequestsPerSecond: 10, Burst: 10, ClientTTL: time.Minute},
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	t.Cleanup(srv.Close)

	if rec := serve(srv, "GET", "/healthz", ""); rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if err := database.Close(gormDB); err != nil {
		t.Fatalf("closing database: %v", err)
	}

	rec := serve(srv, "GET", "/healthz", "")
	if rec.Code != 503 || !strings.Contains(rec.Body.String(), `"store":"error"`) {
		t.Fatalf("expected degraded health, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRateLimitRejectsBurst(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newStubContentService(), 1)

	if rec := serve(srv, "GET", "/api/posts", ""); rec.Code != 200 {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	rec := serve(srv, "GET", "/api/posts", "")
	if rec.Code != 429 {
		t.Fatalf("expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newStubContentService(), 100)

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "7f1c7d6e-8a9b-4c3d-9e2f-1a2b3c4d5e6f")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "7f1c7d6e-8a9b-4c3d-9e2f-1a2b3c4d5e6f" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}

	rec = serve(srv, "GET", "/healthz", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestNewServerValidatesOptions(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(Options{}); err == nil {
		t.Fatalf("expected error without content service")
	}
	if _, err := NewServer(Options{Content: newStubContentService()}); err == nil {
		t.Fatalf("expected error without rate limiter settings")
	}
}

func TestAccessLogNamesAddressedRecord(t *testing.T) {
	t.Parallel()

	logger, hook := logtest.NewNullLogger()
	svc := newStubContentService()
	svc.posts["p1"] = &content.Post{ID: "p1", Title: "Logged"}

	srv, err := NewServer(Options{
		Content:      svc,
		StoreBackend: "sqlite",
		Logger:       logger,
		RateLimiter:  RateLimiterSettings{RequestsPerSecond: 1, Burst: 10, ClientTTL: time.Minute},
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	t.Cleanup(srv.Close)

	if rec := serve(srv, "GET", "/api/posts/p1", ""); rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatalf("expected an access log entry")
	}
	expected := map[string]any{
		"resource":  "post",
		"post_id":   "p1",
		"operation": "get-post",
		"store":     "sqlite",
		"status":    200,
	}
	for key, value := range expected {
		if entry.Data[key] != value {
			t.Fatalf("expected %s=%v in access log, got %#v", key, value, entry.Data)
		}
	}

	hook.Reset()
	if rec := serve(srv, "POST", "/api/posts", `{"id":"p1","title":"Again","content":"x"}`); rec.Code != 409 {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	if entry := hook.LastEntry(); entry == nil || entry.Level != logrus.WarnLevel || entry.Message != "record already exists" {
		t.Fatalf("expected conflict to be logged as a warning, got %#v", entry)
	}
}

func TestResourceOfClassifiesPaths(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/api/posts":              resourcePost,
		"/api/posts/p1":           resourcePost,
		"/posts/p1":               resourcePost,
		"/api/prompts/q1/publish": resourcePrompt,
		"/static/style.css":       resourceStatic,
		"/healthz":                resourceHealth,
		"/":                       resourceIndex,
		"/unknown":                "",
	}
	for path, expected := range cases {
		if got := resourceOf(path); got != expected {
			t.Fatalf("resourceOf(%q) = %q, expected %q", path, got, expected)
		}
	}
}

// helper utilities

func newTestServer(t *testing.T, svc content.Service, burst int) *Server {
	t.Helper()

	srv, err := NewServer(Options{
		Content:     svc,
		Logger:      silentLogger(),
		RateLimiter: RateLimiterSettings{RequestsPerSecond: 0.001, Burst: burst, ClientTTL: time.Minute},
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	t.Cleanup(srv.Close)

	return srv
}

func serve(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// stubs

type stubContentService struct {
	posts     map[string]*content.Post
	prompts   map[string]*content.Prompt
	summaries []content.PromptSummary
	err       error
	nextID    int
}

func newStubContentService() *stubContentService {
	return &stubContentService{posts: map[string]*content.Post{}, prompts: map[string]*content.Prompt{}}
}

func (s *stubContentService) id() string {
	s.nextID++
	return "generated-" + string(rune('a'+s.nextID))
}

func (s *stubContentService) GetPost(_ context.Context, id string) (*content.Post, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.posts[id], nil
}

func (s *stubContentService) ListPosts(context.Context) ([]content.Post, error) {
	if s.err != nil {
		return nil, s.err
	}
	posts := []content.Post{}
	for _, post := range s.posts {
		posts = append(posts, *post)
	}
	return posts, nil
}

func (s *stubContentService) CreatePost(_ context.Context, post *content.Post) (*content.Post, error) {
	if s.err != nil {
		return nil, s.err
	}
	stored := *post
	if stored.ID == "" {
		stored.ID = s.id()
	}
	if _, exists := s.posts[stored.ID]; exists {
		return nil, eris.Wrap(&content.ConditionalWriteError{Kind: "post", ID: stored.ID}, "creating post")
	}
	s.posts[stored.ID] = &stored
	return &stored, nil
}

func (s *stubContentService) DestroyPost(_ context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.posts, id)
	return nil
}

func (s *stubContentService) GetPrompt(_ context.Context, id string) (*content.Prompt, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.prompts[id], nil
}

func (s *stubContentService) ListPrompts(context.Context) ([]content.PromptSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.summaries, nil
}

func (s *stubContentService) CreatePrompt(_ context.Context, prompt *content.Prompt) (*content.Prompt, error) {
	if s.err != nil {
		return nil, s.err
	}
	stored := *prompt
	if stored.ID == "" {
		stored.ID = s.id()
	}
	s.prompts[stored.ID] = &stored
	return &stored, nil
}

func (s *stubContentService) PublishFromPrompt(_ context.Context, promptID string) (*content.Post, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.prompts[promptID] == nil {
		return nil, eris.Wrapf(content.ErrPromptNotFound, "publishing prompt %s", promptID)
	}
	post := &content.Post{ID: s.id(), PromptID: promptID, Title: "Generated"}
	s.posts[post.ID] = post
	return post, nil
}

var _ content.Service = (*stubContentService)(nil)
