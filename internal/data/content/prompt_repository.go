package content

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"promptpress/app/internal/data/document"
	domaincontent "promptpress/app/internal/domain/content"
)

// PromptRepository persists prompts in the shared document table.
type PromptRepository struct {
	store  document.Store
	scan   ScanOptions
	logger *logrus.Logger
}

var _ domaincontent.PromptRepository = (*PromptRepository)(nil)

// NewPromptRepository constructs a prompt repository backed by store.
func NewPromptRepository(store document.Store, scan ScanOptions, logger *logrus.Logger) (*PromptRepository, error) {
	if store == nil {
		return nil, eris.New("document store is required")
	}

	return &PromptRepository{store: store, scan: scan, logger: logger}, nil
}

// GetPrompt returns the prompt stored under id or nil when it does not exist.
func (r *PromptRepository) GetPrompt(ctx context.Context, id string) (*domaincontent.Prompt, error) {
	var item promptItem
	found, err := r.store.GetItem(ctx, id, &item)
	if err != nil {
		logError(r.logger, logrus.Fields{"kind": promptKind, "id": id}, err, "fetching prompt")
		return nil, eris.Wrapf(err, "fetching prompt: %s", id)
	}
	if !found {
		return nil, nil
	}

	prompt := item.toDomain()
	return &prompt, nil
}

// ListPrompts scans for prompts, projecting each to its summary attributes.
func (r *PromptRepository) ListPrompts(ctx context.Context) ([]domaincontent.PromptSummary, error) {
	summaries, err := scanAll[domaincontent.PromptSummary](ctx, r.store, r.scan, promptKind, domaincontent.PromptSummaryAttributes)
	if err != nil {
		logError(r.logger, logrus.Fields{"kind": promptKind}, err, "listing prompts")
		return nil, eris.Wrap(err, "listing prompts")
	}

	return summaries, nil
}

// CreatePrompt inserts prompt. It fails with ErrConditionalWriteFailed when the id is taken.
func (r *PromptRepository) CreatePrompt(ctx context.Context, prompt *domaincontent.Prompt) error {
	if prompt == nil {
		return eris.New("prompt is nil")
	}

	if err := r.store.PutItemIfAbsent(ctx, newPromptItem(prompt)); err != nil {
		return createError(r.logger, promptKind, prompt.ID, err)
	}

	return nil
}
