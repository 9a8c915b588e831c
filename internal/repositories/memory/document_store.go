package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/repositories"
)

// DocumentStore is an in-memory repositories.DocumentStore used by tests and
// by the session engine's own test doubles. Filter evaluation decodes the
// document and compares the top-level field as a string, mirroring the
// jsonb text extraction the postgres store does.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]json.RawMessage // collection -> id -> data

	// FailNext makes the next n operations fail, for transient-error tests.
	failNext int
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[string]map[string]json.RawMessage),
	}
}

// FailNextOps makes the next n store operations return an error.
func (s *DocumentStore) FailNextOps(n int) {
	s.mu.Lock()
	s.failNext = n
	s.mu.Unlock()
}

func (s *DocumentStore) takeFailure() error {
	if s.failNext > 0 {
		s.failNext--
		return fmt.Errorf("simulated store failure")
	}
	return nil
}

func (s *DocumentStore) GetDocument(ctx context.Context, collection, id string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return nil, err
	}

	doc, ok := s.docs[collection][id]
	if !ok {
		return nil, repositories.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *DocumentStore) Query(ctx context.Context, collection string, filters []repositories.Filter) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return nil, err
	}

	var results []json.RawMessage
	for _, doc := range s.docs[collection] {
		matches, err := matchesFilters(doc, filters)
		if err != nil {
			return nil, err
		}
		if matches {
			results = append(results, doc)
		}
	}
	return results, nil
}

func (s *DocumentStore) CreateDocument(ctx context.Context, collection, id string, data interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return err
	}

	if _, ok := s.docs[collection][id]; ok {
		return repositories.ErrDocumentExists
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s/%s: %w", collection, id, err)
	}

	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]json.RawMessage)
	}
	s.docs[collection][id] = payload
	return nil
}

func (s *DocumentStore) UpdateDocument(ctx context.Context, collection, id string, data interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFailure(); err != nil {
		return err
	}

	if _, ok := s.docs[collection][id]; !ok {
		return repositories.ErrDocumentNotFound
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s/%s: %w", collection, id, err)
	}
	s.docs[collection][id] = payload
	return nil
}

func matchesFilters(doc json.RawMessage, filters []repositories.Filter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(doc, &fields); err != nil {
		return false, fmt.Errorf("failed to decode document for filtering: %w", err)
	}

	for _, filter := range filters {
		value, ok := fields[filter.Field]
		if !ok {
			return false, nil
		}
		text := fmt.Sprintf("%v", value)

		switch filter.Op {
		case repositories.OpEqual:
			if text != filter.Value {
				return false, nil
			}
		case repositories.OpLessThan:
			if !(text < filter.Value) {
				return false, nil
			}
		case repositories.OpGreaterThan:
			if !(text > filter.Value) {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported filter op: %s", filter.Op)
		}
	}
	return true, nil
}
