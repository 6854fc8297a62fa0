package sqlite

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"promptpress/app/internal/data/database"
	"promptpress/app/internal/data/document"
)

type testItem struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

func TestNewStoreValidatesOptions(t *testing.T) {
	t.Parallel()

	if _, err := NewStore(nil, Options{Table: "content"}); err == nil {
		t.Fatalf("expected error when database is nil")
	}

	db := openDatabase(t)
	if _, err := NewStore(db.gorm, Options{}); err == nil {
		t.Fatalf("expected error when table is empty")
	}
	if _, err := NewStore(db.gorm, Options{Table: "content", PageSize: -1}); err == nil {
		t.Fatalf("expected error for negative page size")
	}
}

func TestGetItemReportsMissing(t *testing.T) {
	t.Parallel()

	store := setupStore(t, 0)

	var item testItem
	found, err := store.GetItem(context.Background(), "missing", &item)
	if err != nil {
		t.Fatalf("GetItem returned error: %v", err)
	}
	if found {
		t.Fatalf("expected missing item to be reported as not found")
	}
}

func TestPutItemIfAbsentRejectsExistingID(t *testing.T) {
	t.Parallel()

	store := setupStore(t, 0)
	ctx := context.Background()

	if err := store.PutItemIfAbsent(ctx, testItem{ID: "a", Type: "post", Title: "first"}); err != nil {
		t.Fatalf("PutItemIfAbsent returned error: %v", err)
	}

	err := store.PutItemIfAbsent(ctx, testItem{ID: "a", Type: "post", Title: "second"})
	if !errors.Is(err, document.ErrConditionalCheckFailed) {
		t.Fatalf("expected conditional check failure, got %v", err)
	}

	var stored testItem
	found, err := store.GetItem(ctx, "a", &stored)
	if err != nil || !found {
		t.Fatalf("expected stored item, found=%v err=%v", found, err)
	}
	if stored.Title != "first" {
		t.Fatalf("expected original item to be kept, got title %q", stored.Title)
	}
}

func TestPutItemIfAbsentRequiresID(t *testing.T) {
	t.Parallel()

	store := setupStore(t, 0)
	if err := store.PutItemIfAbsent(context.Background(), testItem{Type: "post"}); err == nil {
		t.Fatalf("expected error for item without id")
	}
}

func TestDeleteItemIsSilentForMissingID(t *testing.T) {
	t.Parallel()

	store := setupStore(t, 0)
	ctx := context.Background()

	if err := store.DeleteItem(ctx, "missing"); err != nil {
		t.Fatalf("DeleteItem returned error: %v", err)
	}

	if err := store.PutItemIfAbsent(ctx, testItem{ID: "b", Type: "post"}); err != nil {
		t.Fatalf("PutItemIfAbsent returned error: %v", err)
	}
	if err := store.DeleteItem(ctx, "b"); err != nil {
		t.Fatalf("DeleteItem returned error: %v", err)
	}

	var item testItem
	found, err := store.GetItem(ctx, "b", &item)
	if err != nil {
		t.Fatalf("GetItem returned error: %v", err)
	}
	if found {
		t.Fatalf("expected deleted item to be gone")
	}
}

func TestScanFiltersByKindAndProjects(t *testing.T) {
	t.Parallel()

	store := setupStore(t, 0)
	ctx := context.Background()

	seed(t, store,
		testItem{ID: "1", Type: "post", Title: "one", Body: "b1"},
		testItem{ID: "2", Type: "prompt", Title: "two", Body: "b2"},
		testItem{ID: "3", Type: "repost", Title: "three", Body: "b3"},
	)

	var contains []testItem
	next, err := store.Scan(ctx, document.ScanRequest{Kind: "post", Match: document.MatchContains}, &contains)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if next != "" {
		t.Fatalf("expected no continuation key, got %q", next)
	}
	if len(contains) != 2 || contains[0].ID != "1" || contains[1].ID != "3" {
		t.Fatalf("expected substring match to return items 1 and 3, got %#v", contains)
	}

	var exact []testItem
	if _, err := store.Scan(ctx, document.ScanRequest{Kind: "post", Match: document.MatchExact}, &exact); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(exact) != 1 || exact[0].ID != "1" {
		t.Fatalf("expected exact match to return item 1, got %#v", exact)
	}

	var projected []map[string]any
	if _, err := store.Scan(ctx, document.ScanRequest{Kind: "prompt", Projection: []string{"id", "title"}}, &projected); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(projected) != 1 {
		t.Fatalf("expected one projected item, got %d", len(projected))
	}
	if len(projected[0]) != 2 || projected[0]["id"] != "2" || projected[0]["title"] != "two" {
		t.Fatalf("unexpected projected item %#v", projected[0])
	}
}

func TestScanPagesWithContinuationKey(t *testing.T) {
	t.Parallel()

	store := setupStore(t, 2)
	ctx := context.Background()

	seed(t, store,
		testItem{ID: "a", Type: "post"},
		testItem{ID: "b", Type: "post"},
		testItem{ID: "c", Type: "post"},
	)

	var first []testItem
	next, err := store.Scan(ctx, document.ScanRequest{Kind: "post"}, &first)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(first) != 2 || next != "b" {
		t.Fatalf("expected first page of 2 with key b, got %d items and key %q", len(first), next)
	}

	var second []testItem
	next, err = store.Scan(ctx, document.ScanRequest{Kind: "post", StartKey: next}, &second)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(second) != 1 || second[0].ID != "c" || next != "" {
		t.Fatalf("expected final page with item c, got %#v and key %q", second, next)
	}
}

func TestScanEmptyTableReturnsEmptySlice(t *testing.T) {
	t.Parallel()

	store := setupStore(t, 0)

	var items []testItem
	if _, err := store.Scan(context.Background(), document.ScanRequest{Kind: "post"}, &items); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}

type testDatabase struct {
	gorm   *gorm.DB
	logger *logrus.Logger
}

func openDatabase(t *testing.T) testDatabase {
	t.Helper()

	gormDB, err := database.Open(database.Options{Path: filepath.Join(t.TempDir(), "documents.db")})
	if err != nil {
		t.Fatalf("database.Open returned error: %v", err)
	}

	t.Cleanup(func() {
		if closeErr := database.Close(gormDB); closeErr != nil {
			t.Errorf("closing database failed: %v", closeErr)
		}
	})

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return testDatabase{gorm: gormDB, logger: logger}
}

func seed(t *testing.T, store *Store, items ...testItem) {
	t.Helper()

	for _, item := range items {
		if err := store.PutItemIfAbsent(context.Background(), item); err != nil {
			t.Fatalf("seeding %s failed: %v", item.ID, err)
		}
	}
}

func setupStore(t *testing.T, pageSize int) *Store {
	t.Helper()

	db := openDatabase(t)
	if err := Migrate(context.Background(), db.gorm, "content", db.logger); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}

	store, err := NewStore(db.gorm, Options{Table: "content", PageSize: pageSize, Logger: db.logger})
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}

	return store
}
