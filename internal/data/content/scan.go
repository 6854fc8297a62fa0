package content

import (
	"context"

	"github.com/rotisserie/eris"

	"promptpress/app/internal/data/document"
)

// ScanOptions controls how list operations scan the shared table.
type ScanOptions struct {
	// FollowPages keeps scanning until the store reports no continuation key.
	// When false only the first page is returned.
	FollowPages bool
	// ExactTypeMatch compares the discriminator with equality instead of substring containment.
	ExactTypeMatch bool
}

func (o ScanOptions) request(kind string, projection []string) document.ScanRequest {
	match := document.MatchContains
	if o.ExactTypeMatch {
		match = document.MatchExact
	}

	return document.ScanRequest{Kind: kind, Match: match, Projection: projection}
}

// scanAll issues the scan for kind and decodes every returned page into items of type T.
func scanAll[T any](ctx context.Context, store document.Store, opts ScanOptions, kind string, projection []string) ([]T, error) {
	req := opts.request(kind, projection)
	results := []T{}

	for {
		var page []T
		next, err := store.Scan(ctx, req, &page)
		if err != nil {
			return nil, eris.Wrapf(err, "scanning %s items", kind)
		}

		results = append(results, page...)

		if !opts.FollowPages || next == "" {
			return results, nil
		}
		req.StartKey = next
	}
}
