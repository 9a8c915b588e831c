package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentRow is the storage shape: one jsonb blob per (collection, id).
type documentRow struct {
	Collection string         `gorm:"primaryKey;size:100"`
	DocID      string         `gorm:"primaryKey;size:255;column:doc_id"`
	Data       datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentRow) TableName() string {
	return "documents"
}

// DocumentStore implements repositories.DocumentStore on PostgreSQL, using
// a single documents table with jsonb payloads. Filters translate to jsonb
// text extraction, which covers the equality/range queries the engine needs.
type DocumentStore struct {
	db *gorm.DB
}

func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Migrate creates the documents table.
func (s *DocumentStore) Migrate() error {
	return s.db.AutoMigrate(&documentRow{})
}

func (s *DocumentStore) GetDocument(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}
	return json.RawMessage(row.Data), nil
}

func (s *DocumentStore) Query(ctx context.Context, collection string, filters []repositories.Filter) ([]json.RawMessage, error) {
	query := s.db.WithContext(ctx).Model(&documentRow{}).Where("collection = ?", collection)

	for _, filter := range filters {
		expr := fmt.Sprintf("data->>'%s'", filter.Field)
		switch filter.Op {
		case repositories.OpEqual:
			query = query.Where(expr+" = ?", filter.Value)
		case repositories.OpLessThan:
			query = query.Where(expr+" < ?", filter.Value)
		case repositories.OpGreaterThan:
			query = query.Where(expr+" > ?", filter.Value)
		default:
			return nil, fmt.Errorf("unsupported filter op: %s", filter.Op)
		}
	}

	var rows []documentRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}

	docs := make([]json.RawMessage, len(rows))
	for i, row := range rows {
		docs[i] = json.RawMessage(row.Data)
	}
	return docs, nil
}

func (s *DocumentStore) CreateDocument(ctx context.Context, collection, id string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s/%s: %w", collection, id, err)
	}

	row := documentRow{
		Collection: collection,
		DocID:      id,
		Data:       datatypes.JSON(payload),
	}

	// DO NOTHING keeps the insert conditional; zero rows affected means the
	// key was already taken.
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to create document %s/%s: %w", collection, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrDocumentExists
	}
	return nil
}

func (s *DocumentStore) UpdateDocument(ctx context.Context, collection, id string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s/%s: %w", collection, id, err)
	}

	result := s.db.WithContext(ctx).Model(&documentRow{}).
		Where("collection = ? AND doc_id = ?", collection, id).
		Update("data", datatypes.JSON(payload))
	if result.Error != nil {
		return fmt.Errorf("failed to update document %s/%s: %w", collection, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrDocumentNotFound
	}
	return nil
}
