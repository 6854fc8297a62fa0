package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"promptpress/app/internal/data/document"
)

// DocumentRecord is one item of the shared content table. Body holds the full item as JSON.
type DocumentRecord struct {
	ID        string `gorm:"primaryKey;size:255"`
	Kind      string `gorm:"column:kind;size:64;index;not null"`
	Body      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

// Options configures the SQLite document store.
type Options struct {
	Table string
	// PageSize caps the items returned per scan page. Zero returns every match in one page.
	PageSize int
	Logger   *logrus.Logger
}

// Store implements document.Store on top of a single SQLite table.
type Store struct {
	db       *gorm.DB
	table    string
	pageSize int
	logger   *logrus.Logger
}

var _ document.Store = (*Store)(nil)

// NewStore constructs a Store writing to the configured table.
func NewStore(db *gorm.DB, opts Options) (*Store, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	table := strings.TrimSpace(opts.Table)
	if table == "" {
		return nil, eris.New("table name is required")
	}

	if opts.PageSize < 0 {
		return nil, eris.Errorf("page size must not be negative, got %d", opts.PageSize)
	}

	return &Store{db: db, table: table, pageSize: opts.PageSize, logger: opts.Logger}, nil
}

// GetItem decodes the item stored under id into out.
func (s *Store) GetItem(ctx context.Context, id string, out any) (bool, error) {
	var record DocumentRecord
	err := s.db.WithContext(ctx).Table(s.table).Where("id = ?", id).Take(&record).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		s.logError(logrus.Fields{"id": id}, err, "fetching document")
		return false, eris.Wrapf(err, "fetching document: %s", id)
	}

	if err := json.Unmarshal([]byte(record.Body), out); err != nil {
		return false, eris.Wrapf(err, "decoding document: %s", id)
	}

	return true, nil
}

// PutItemIfAbsent inserts item, relying on the primary key to reject an existing id.
func (s *Store) PutItemIfAbsent(ctx context.Context, item any) error {
	body, err := json.Marshal(item)
	if err != nil {
		return eris.Wrap(err, "encoding document")
	}

	var keys struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &keys); err != nil {
		return eris.Wrap(err, "reading document keys")
	}
	if keys.ID == "" {
		return eris.New("document id is required")
	}

	record := &DocumentRecord{ID: keys.ID, Kind: keys.Type, Body: string(body)}
	if err := s.db.WithContext(ctx).Table(s.table).Create(record).Error; err != nil {
		if isUniqueViolation(err) {
			return &document.ConditionalCheckError{ID: keys.ID, Err: err}
		}
		s.logError(logrus.Fields{"id": keys.ID, "kind": keys.Type}, err, "inserting document")
		return eris.Wrapf(err, "inserting document: %s", keys.ID)
	}

	return nil
}

// DeleteItem removes the item stored under id.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Table(s.table).Where("id = ?", id).Delete(&DocumentRecord{}).Error; err != nil {
		s.logError(logrus.Fields{"id": id}, err, "deleting document")
		return eris.Wrapf(err, "deleting document: %s", id)
	}

	return nil
}

// Scan returns one page of documents ordered by id.
func (s *Store) Scan(ctx context.Context, req document.ScanRequest, out any) (string, error) {
	query := s.db.WithContext(ctx).Table(s.table).Order("id ASC")

	switch req.Match {
	case document.MatchExact:
		query = query.Where("kind = ?", req.Kind)
	default:
		query = query.Where("instr(kind, ?) > 0", req.Kind)
	}

	if req.StartKey != "" {
		query = query.Where("id > ?", req.StartKey)
	}

	if s.pageSize > 0 {
		query = query.Limit(s.pageSize + 1)
	}

	var records []DocumentRecord
	if err := query.Find(&records).Error; err != nil {
		s.logError(logrus.Fields{"kind": req.Kind}, err, "scanning documents")
		return "", eris.Wrapf(err, "scanning documents of kind %s", req.Kind)
	}

	nextKey := ""
	if s.pageSize > 0 && len(records) > s.pageSize {
		records = records[:s.pageSize]
		nextKey = records[len(records)-1].ID
	}

	items := make([]json.RawMessage, 0, len(records))
	for _, record := range records {
		body, err := project(record.Body, req.Projection)
		if err != nil {
			return "", eris.Wrapf(err, "projecting document: %s", record.ID)
		}
		items = append(items, body)
	}

	page, err := json.Marshal(items)
	if err != nil {
		return "", eris.Wrap(err, "encoding scan page")
	}
	if err := json.Unmarshal(page, out); err != nil {
		return "", eris.Wrap(err, "decoding scan page")
	}

	return nextKey, nil
}

func project(body string, attributes []string) (json.RawMessage, error) {
	if len(attributes) == 0 {
		return json.RawMessage(body), nil
	}

	var full map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &full); err != nil {
		return nil, err
	}

	projected := make(map[string]json.RawMessage, len(attributes))
	for _, attribute := range attributes {
		if value, ok := full[attribute]; ok {
			projected[attribute] = value
		}
	}

	return json.Marshal(projected)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique") || strings.Contains(message, "primary key")
}

func (s *Store) logError(fields logrus.Fields, err error, message string) {
	if s.logger == nil || err == nil {
		return
	}

	entry := s.logger.WithField("error", err.Error()).WithField("table", s.table)
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
