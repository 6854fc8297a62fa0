package document

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
)

const (
	// KeyAttribute is the primary key attribute shared by every item in the table.
	KeyAttribute = "id"
	// TypeAttribute is the discriminator distinguishing record kinds within the table.
	TypeAttribute = "type"
)

// MatchMode selects how a scan compares the discriminator against the requested kind.
type MatchMode int

const (
	// MatchContains keeps items whose discriminator contains the kind as a substring.
	MatchContains MatchMode = iota
	// MatchExact keeps items whose discriminator equals the kind.
	MatchExact
)

func (m MatchMode) String() string {
	switch m {
	case MatchExact:
		return "exact"
	default:
		return "contains"
	}
}

// ScanRequest describes a single filtered scan page.
type ScanRequest struct {
	Kind       string
	Match      MatchMode
	Projection []string
	// StartKey continues a previous scan from the key it returned. Empty starts at the beginning.
	StartKey string
}

// Store is the narrow set of document-store requests the repositories issue.
// Implementations must be safe for concurrent use.
type Store interface {
	// GetItem decodes the item stored under id into out. It reports false when no item exists.
	GetItem(ctx context.Context, id string, out any) (bool, error)
	// PutItemIfAbsent writes item unless an item with the same id already exists,
	// in which case the returned error matches ErrConditionalCheckFailed.
	PutItemIfAbsent(ctx context.Context, item any) error
	// DeleteItem removes the item stored under id. Deleting a missing id succeeds.
	DeleteItem(ctx context.Context, id string) error
	// Scan decodes one page of matching items into out, which must point to a slice.
	// The returned key is empty when the scan reached the end of the table.
	Scan(ctx context.Context, req ScanRequest, out any) (string, error)
}

// ErrConditionalCheckFailed reports a conditional write rejected because the key already exists.
var ErrConditionalCheckFailed = eris.New("conditional check failed")

// ConditionalCheckError wraps the backend error for a rejected conditional write.
// It matches ErrConditionalCheckFailed and unwraps to the backend's own error.
type ConditionalCheckError struct {
	ID  string
	Err error
}

func (e *ConditionalCheckError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: item %q already exists", ErrConditionalCheckFailed, e.ID)
	}
	return fmt.Sprintf("%s: item %q already exists: %v", ErrConditionalCheckFailed, e.ID, e.Err)
}

func (e *ConditionalCheckError) Is(target error) bool {
	return target == ErrConditionalCheckFailed
}

func (e *ConditionalCheckError) Unwrap() error {
	return e.Err
}
