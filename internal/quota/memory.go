package quota

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-memory Store for tests and single-node
// development runs. All operations are atomic under one lock, so it honors
// the same guarantees as the PostgreSQL store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// GetOrCreate returns the subject's record, creating a full one if absent.
func (s *MemoryStore) GetOrCreate(_ context.Context, subjectID string, allotment int, resetAt time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[subjectID]
	if !ok {
		rec = &Record{SubjectID: subjectID, Balance: allotment, ResetAt: resetAt}
		s.records[subjectID] = rec
	}
	return *rec, nil
}

// ResetIfStale refills the record if its boundary has passed.
func (s *MemoryStore) ResetIfStale(_ context.Context, subjectID string, allotment int, now, next time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[subjectID]
	if !ok {
		rec = &Record{SubjectID: subjectID, Balance: allotment, ResetAt: next}
		s.records[subjectID] = rec
		return *rec, nil
	}
	if Stale(rec.ResetAt, now) {
		rec.Balance = allotment
		rec.ResetAt = next
	}
	return *rec, nil
}

// TryConsume applies a lazy reset then debits cost if the balance allows it,
// all under the store lock.
func (s *MemoryStore) TryConsume(_ context.Context, subjectID string, cost, allotment int, now, next time.Time) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[subjectID]
	if !ok {
		rec = &Record{SubjectID: subjectID, Balance: allotment, ResetAt: next}
		s.records[subjectID] = rec
	} else if Stale(rec.ResetAt, now) {
		rec.Balance = allotment
		rec.ResetAt = next
	}

	if rec.Balance < cost {
		return *rec, false, nil
	}
	rec.Balance -= cost
	return *rec, true, nil
}

// Credit adds amount to the subject's balance, creating the record if needed.
func (s *MemoryStore) Credit(_ context.Context, subjectID string, amount, allotment int, resetAt time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[subjectID]
	if !ok {
		rec = &Record{SubjectID: subjectID, Balance: allotment, ResetAt: resetAt}
		s.records[subjectID] = rec
	}
	rec.Balance += amount
	return *rec, nil
}
