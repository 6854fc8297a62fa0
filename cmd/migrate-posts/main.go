// Command migrate-posts copies the legacy Markdown posts into the document store.
// Posts whose id already exists are skipped, so the command can be re-run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"promptpress/app/internal/app/bootstrap"
	"promptpress/app/internal/data/legacy"
	"promptpress/app/internal/domain/content"
	"promptpress/app/internal/platform/config"
	applog "promptpress/app/internal/platform/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	loader, err := legacy.NewDirLoader(cfg.PostsDir)
	if err != nil {
		return eris.Wrap(err, "creating legacy loader")
	}

	store, err := bootstrap.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return eris.Wrap(err, "opening document store")
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.WithError(closeErr).Error("closing document store")
		}
	}()

	repos, err := bootstrap.NewRepositories(store.Store, cfg.Store, logger)
	if err != nil {
		return err
	}

	service, err := content.NewService(content.ServiceOptions{
		Posts:   repos.Posts,
		Prompts: repos.Prompts,
		Author:  content.Author{Name: cfg.Author.Name, Picture: cfg.Author.Picture},
		Logger:  logger,
	})
	if err != nil {
		return eris.Wrap(err, "creating content service")
	}

	entries, err := loader.LoadAll(legacy.PostFields)
	if err != nil {
		return eris.Wrap(err, "loading legacy posts")
	}

	summary := migrate(ctx, service, entries, time.Now, logger)

	logger.WithFields(logrus.Fields{
		"posts_dir": cfg.PostsDir,
		"found":     len(entries),
		"created":   summary.created,
		"skipped":   summary.skipped,
		"failed":    summary.failed,
	}).Info("legacy post migration finished")

	if summary.failed > 0 {
		return eris.Errorf("%d posts failed to migrate", summary.failed)
	}
	return nil
}

type migrationSummary struct {
	created int
	skipped int
	failed  int
}

// legacyPostID derives a stable id from the slug so re-runs hit the existing record.
func legacyPostID(slug string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(slug)).String()
}

func migrate(ctx context.Context, service content.Service, entries []legacy.Entry, now func() time.Time, logger *logrus.Logger) migrationSummary {
	var summary migrationSummary

	for _, entry := range entries {
		post := legacy.ToPost(entry)
		post.ID = legacyPostID(post.Slug)
		post.CreatedAtMs = now().UnixMilli()

		fields := logrus.Fields{"slug": post.Slug, "id": post.ID}

		if _, err := service.CreatePost(ctx, &post); err != nil {
			if eris.Is(err, content.ErrConditionalWriteFailed) {
				summary.skipped++
				logger.WithFields(fields).Info("post already migrated")
				continue
			}
			summary.failed++
			logger.WithFields(fields).WithError(err).Error("migrating post")
			continue
		}

		summary.created++
		logger.WithFields(fields).Debug("migrated post")
	}

	return summary
}
