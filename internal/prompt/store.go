package prompt

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nikhilbhutani/promptrelay/internal/models"
)

var ErrNotFound = errors.New("prompt not found")

// Store persists prompt records. Records are never deleted; the answer is
// the only mutable field.
type Store interface {
	Create(ctx context.Context, question string, answer *string) (*models.PromptRecord, error)
	SetAnswer(ctx context.Context, id int64, answer string) error
	Get(ctx context.Context, id int64) (*models.PromptRecord, error)
	List(ctx context.Context) ([]models.PromptRecord, error)
}

// MemoryStore keeps records in process memory. It backs the API when no
// database is reachable, and the tests.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []models.PromptRecord
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, now: time.Now}
}

func (m *MemoryStore) Create(_ context.Context, question string, answer *string) (*models.PromptRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := models.PromptRecord{
		ID:        m.nextID,
		Question:  question,
		Answer:    copyString(answer),
		CreatedAt: m.now().UTC(),
	}
	m.nextID++
	m.records = append(m.records, rec)

	out := rec
	out.Answer = copyString(rec.Answer)
	return &out, nil
}

func (m *MemoryStore) SetAnswer(_ context.Context, id int64, answer string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index(id)
	if !ok {
		return ErrNotFound
	}
	m.records[i].Answer = &answer
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id int64) (*models.PromptRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index(id)
	if !ok {
		return nil, ErrNotFound
	}
	out := m.records[i]
	out.Answer = copyString(out.Answer)
	return &out, nil
}

func (m *MemoryStore) List(_ context.Context) ([]models.PromptRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.PromptRecord, len(m.records))
	for i, r := range m.records {
		r.Answer = copyString(r.Answer)
		out[i] = r
	}
	return out, nil
}

// index relies on ids being assigned densely from 1.
func (m *MemoryStore) index(id int64) (int, bool) {
	i := int(id - 1)
	if id < 1 || i >= len(m.records) {
		return 0, false
	}
	return i, true
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
