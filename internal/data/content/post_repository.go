package content

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"promptpress/app/internal/data/document"
	domaincontent "promptpress/app/internal/domain/content"
)

// PostRepository persists posts in the shared document table.
type PostRepository struct {
	store  document.Store
	scan   ScanOptions
	logger *logrus.Logger
}

var _ domaincontent.PostRepository = (*PostRepository)(nil)

// NewPostRepository constructs a post repository backed by store.
func NewPostRepository(store document.Store, scan ScanOptions, logger *logrus.Logger) (*PostRepository, error) {
	if store == nil {
		return nil, eris.New("document store is required")
	}

	return &PostRepository{store: store, scan: scan, logger: logger}, nil
}

// GetPost returns the post stored under id or nil when it does not exist.
func (r *PostRepository) GetPost(ctx context.Context, id string) (*domaincontent.Post, error) {
	var item postItem
	found, err := r.store.GetItem(ctx, id, &item)
	if err != nil {
		logError(r.logger, logrus.Fields{"kind": postKind, "id": id}, err, "fetching post")
		return nil, eris.Wrapf(err, "fetching post: %s", id)
	}
	if !found {
		return nil, nil
	}

	post := item.toDomain()
	return &post, nil
}

// ListPosts returns the posts found by scanning the table. Order is whatever the store returns.
func (r *PostRepository) ListPosts(ctx context.Context) ([]domaincontent.Post, error) {
	items, err := scanAll[postItem](ctx, r.store, r.scan, postKind, nil)
	if err != nil {
		logError(r.logger, logrus.Fields{"kind": postKind}, err, "listing posts")
		return nil, eris.Wrap(err, "listing posts")
	}

	posts := make([]domaincontent.Post, 0, len(items))
	for _, item := range items {
		posts = append(posts, item.toDomain())
	}

	return posts, nil
}

// CreatePost inserts post. It fails with ErrConditionalWriteFailed when the id is taken.
func (r *PostRepository) CreatePost(ctx context.Context, post *domaincontent.Post) error {
	if post == nil {
		return eris.New("post is nil")
	}

	if err := r.store.PutItemIfAbsent(ctx, newPostItem(post)); err != nil {
		return createError(r.logger, postKind, post.ID, err)
	}

	return nil
}

// DestroyPost deletes the post stored under id. Missing ids are not an error.
func (r *PostRepository) DestroyPost(ctx context.Context, id string) error {
	if err := r.store.DeleteItem(ctx, id); err != nil {
		logError(r.logger, logrus.Fields{"kind": postKind, "id": id}, err, "deleting post")
		return eris.Wrapf(err, "deleting post: %s", id)
	}

	return nil
}

func createError(logger *logrus.Logger, kind, id string, err error) error {
	fields := logrus.Fields{"kind": kind, "id": id}

	if errors.Is(err, document.ErrConditionalCheckFailed) {
		if logger != nil {
			logger.WithFields(fields).Warn("create rejected, id already exists")
		}
		return &domaincontent.ConditionalWriteError{Kind: kind, ID: id, Err: err}
	}

	logError(logger, fields, err, "creating "+kind)
	return eris.Wrapf(err, "creating %s: %s", kind, id)
}

func logError(logger *logrus.Logger, fields logrus.Fields, err error, message string) {
	if logger == nil || err == nil {
		return
	}

	entry := logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
