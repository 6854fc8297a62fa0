package bootstrap

import (
	"context"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	domaincontent "promptpress/app/internal/domain/content"
	domainllm "promptpress/app/internal/domain/llm"
	"promptpress/app/internal/infrastructure/llm/openai"
	"promptpress/app/internal/platform/config"
	presentationhttp "promptpress/app/internal/presentation/http"
)

const rateLimiterClientTTL = 10 * time.Minute

type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

type Result struct {
	ContentService domaincontent.Service
	HTTPServer     *presentationhttp.Server
	Store          *StoreHandle
	Cleanup        func() error
}

// Build composes the promptpress application layers and returns the constructed components.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	cfg := deps.Config

	store, err := OpenStore(ctx, cfg.Store, deps.Logger)
	if err != nil {
		return Result{}, err
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := store.Close(); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("closing store after bootstrap failure")
		}
		return Result{}, wrapper
	}

	repos, err := NewRepositories(store.Store, cfg.Store, deps.Logger)
	if err != nil {
		return closeOnError(err)
	}

	generator, err := buildGenerator(cfg, deps.Logger)
	if err != nil {
		return closeOnError(err)
	}

	service, err := domaincontent.NewService(domaincontent.ServiceOptions{
		Posts:     repos.Posts,
		Prompts:   repos.Prompts,
		Generator: generator,
		Author:    domaincontent.Author{Name: cfg.Author.Name, Picture: cfg.Author.Picture},
		Logger:    deps.Logger,
		SentryHub: deps.SentryHub,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating content service"))
	}

	httpServer, err := presentationhttp.NewServer(presentationhttp.Options{
		Content:      service,
		Database:     store.Database,
		StoreBackend: store.Backend,
		Logger:       deps.Logger,
		SentryHub:    deps.SentryHub,
		RateLimiter: presentationhttp.RateLimiterSettings{
			Burst:             cfg.RateLimit.Burst,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			ClientTTL:         rateLimiterClientTTL,
		},
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising http server"))
	}

	cleanup := func() error {
		httpServer.Close()
		return store.Close()
	}

	return Result{
		ContentService: service,
		HTTPServer:     httpServer,
		Store:          store,
		Cleanup:        cleanup,
	}, nil
}

// buildGenerator returns nil when no LLM is configured; publishing is then unavailable.
func buildGenerator(cfg config.Config, logger *logrus.Logger) (domainllm.PostGenerator, error) {
	if strings.TrimSpace(cfg.LLMAPIKey) == "" || strings.TrimSpace(cfg.LLMModel) == "" {
		if logger != nil {
			logger.Warn("LLM_API_KEY or LLM_MODEL not set; publishing from prompts is disabled")
		}
		return nil, nil
	}

	client, err := openai.NewClient(openai.ClientOptions{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMEndpoint,
		Logger:  logger,
	})
	if err != nil {
		return nil, eris.Wrap(err, "creating llm client")
	}

	generator, err := openai.NewGenerator(openai.GeneratorOptions{
		Client: client,
		Model:  cfg.LLMModel,
	})
	if err != nil {
		return nil, eris.Wrap(err, "initialising llm generator")
	}

	return generator, nil
}
