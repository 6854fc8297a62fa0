package log

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
)

type recordingTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (r *recordingTransport) Flush(time.Duration) bool              { return true }
func (r *recordingTransport) FlushWithContext(context.Context) bool { return true }
func (r *recordingTransport) Configure(sentry.ClientOptions)        {}
func (r *recordingTransport) Close()                                {}

func (r *recordingTransport) SendEvent(event *sentry.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingTransport) sent() []*sentry.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*sentry.Event(nil), r.events...)
}

func TestInitSentryReportsErrorEntriesWithStoreTag(t *testing.T) {
	t.Parallel()

	transport := &recordingTransport{}
	logger := Discard()
	_, flush, err := InitSentry(logger, SentrySettings{
		DSN:          "https://public@example.com/1",
		Environment:  "test",
		StoreBackend: "dynamodb",
		Transport:    transport,
	})
	if err != nil {
		t.Fatalf("InitSentry returned error: %v", err)
	}
	defer flush()

	logger.WithField("post_id", "p1").Info("not reported")
	logger.WithField("post_id", "p1").Error("creating post failed")

	events := transport.sent()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	event := events[0]
	if event.Message != "creating post failed" {
		t.Fatalf("unexpected event message %q", event.Message)
	}
	if event.Tags["store_backend"] != "dynamodb" || event.Tags["service"] != "promptpress" {
		t.Fatalf("expected service and store tags, got %#v", event.Tags)
	}
	if event.Environment != "test" {
		t.Fatalf("expected environment test, got %q", event.Environment)
	}
}
