package log

import (
	"time"

	"github.com/getsentry/sentry-go"
	sentrylogrus "github.com/getsentry/sentry-go/logrus"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const (
	sentryFlushTimeout = 2 * time.Second
	serviceName        = "promptpress"
)

// SentrySettings configures error reporting.
type SentrySettings struct {
	DSN          string
	Environment  string
	Release      string
	StoreBackend string
	// Transport replaces the HTTP transport, mainly for tests.
	Transport sentry.Transport
}

// InitSentry reports error-level log entries to Sentry as events tagged with the
// service and store backend. Without a DSN it returns a nil hub and a no-op flush.
func InitSentry(logger *logrus.Logger, settings SentrySettings) (*sentry.Hub, func(), error) {
	if settings.DSN == "" {
		return nil, func() {}, nil
	}
	if logger == nil {
		return nil, nil, eris.New("logger is required")
	}

	tags := map[string]string{"service": serviceName}
	if settings.StoreBackend != "" {
		tags["store_backend"] = settings.StoreBackend
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              settings.DSN,
		Environment:      settings.Environment,
		Release:          settings.Release,
		AttachStacktrace: true,
		Tags:             tags,
		Transport:        settings.Transport,
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "error initializing sentry client")
	}

	hub := sentry.NewHub(client, sentry.NewScope())

	logger.AddHook(sentrylogrus.NewEventHookFromClient([]logrus.Level{
		logrus.ErrorLevel,
		logrus.FatalLevel,
		logrus.PanicLevel,
	}, client))

	return hub, func() { hub.Flush(sentryFlushTimeout) }, nil
}
