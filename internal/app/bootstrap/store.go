package bootstrap

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	datacontent "promptpress/app/internal/data/content"
	"promptpress/app/internal/data/database"
	"promptpress/app/internal/data/document"
	"promptpress/app/internal/data/document/sqlite"
	"promptpress/app/internal/infrastructure/store/dynamodb"
	"promptpress/app/internal/platform/config"
)

// StoreHandle is an opened document store. Database is set only for the sqlite backend.
type StoreHandle struct {
	Store    document.Store
	Backend  string
	Database *gorm.DB
	Close    func() error
}

// Repositories are the typed views over the shared content table.
type Repositories struct {
	Posts   *datacontent.PostRepository
	Prompts *datacontent.PromptRepository
}

// OpenStore connects to the configured document store backend.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *logrus.Logger) (*StoreHandle, error) {
	switch cfg.Backend {
	case config.BackendDynamoDB:
		store, err := dynamodb.New(dynamodb.Options{
			Table:     cfg.TableName,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Endpoint:  cfg.Endpoint,
			Logger:    logger,
		})
		if err != nil {
			return nil, eris.Wrap(err, "creating dynamodb store")
		}
		return &StoreHandle{Store: store, Backend: cfg.Backend, Close: func() error { return nil }}, nil

	case config.BackendSQLite:
		db, err := database.Open(database.Options{Path: cfg.SQLitePath, Logger: logger})
		if err != nil {
			return nil, eris.Wrap(err, "opening database")
		}

		closeOnError := func(wrapper error) (*StoreHandle, error) {
			if closeErr := database.Close(db); closeErr != nil && logger != nil {
				logger.WithError(closeErr).Error("closing database after bootstrap failure")
			}
			return nil, wrapper
		}

		if err := sqlite.Migrate(ctx, db, cfg.TableName, logger); err != nil {
			return closeOnError(eris.Wrap(err, "migrating document table"))
		}

		store, err := sqlite.NewStore(db, sqlite.Options{Table: cfg.TableName, Logger: logger})
		if err != nil {
			return closeOnError(eris.Wrap(err, "creating sqlite store"))
		}

		return &StoreHandle{
			Store:    store,
			Backend:  cfg.Backend,
			Database: db,
			Close:    func() error { return database.Close(db) },
		}, nil

	default:
		return nil, eris.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}

// NewRepositories builds the post and prompt repositories over store.
func NewRepositories(store document.Store, cfg config.StoreConfig, logger *logrus.Logger) (Repositories, error) {
	scan := datacontent.ScanOptions{
		FollowPages:    cfg.ScanAllPages,
		ExactTypeMatch: cfg.ExactTypeMatch,
	}

	posts, err := datacontent.NewPostRepository(store, scan, logger)
	if err != nil {
		return Repositories{}, eris.Wrap(err, "creating post repository")
	}

	prompts, err := datacontent.NewPromptRepository(store, scan, logger)
	if err != nil {
		return Repositories{}, eris.Wrap(err, "creating prompt repository")
	}

	return Repositories{Posts: posts, Prompts: prompts}, nil
}
