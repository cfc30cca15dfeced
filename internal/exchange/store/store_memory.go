package store

import (
	"context"
	"sync"

	"vpexchange/internal/exchange/models"
	"vpexchange/pkg/platform/sentinel"
	psync "vpexchange/pkg/platform/sync"
)

// InMemoryStore keeps exchanges and transactions in process memory.
// Mutators run under a per-transaction shard lock, so a slow verification
// only blocks submissions that hash to the same shard.
type InMemoryStore struct {
	mu           sync.RWMutex
	exchanges    map[string]*models.ExchangeDefinition
	transactions map[string]*models.Transaction
	txLocks      *psync.ShardedMutex
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		exchanges:    make(map[string]*models.ExchangeDefinition),
		transactions: make(map[string]*models.Transaction),
		txLocks:      psync.NewShardedMutex(64),
	}
}

func (s *InMemoryStore) CreateExchange(_ context.Context, def *models.ExchangeDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exchanges[def.ExchangeID]; ok {
		return sentinel.ErrConflict
	}
	s.exchanges[def.ExchangeID] = cloneExchange(def)
	return nil
}

func (s *InMemoryStore) FindExchange(_ context.Context, exchangeID string) (*models.ExchangeDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.exchanges[exchangeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneExchange(def), nil
}

func (s *InMemoryStore) CreateTransaction(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exchanges[tx.ExchangeID]; !ok {
		return sentinel.ErrNotFound
	}
	if _, ok := s.transactions[tx.TransactionID]; ok {
		return sentinel.ErrConflict
	}
	s.transactions[tx.TransactionID] = cloneTransaction(tx)
	return nil
}

func (s *InMemoryStore) FindTransaction(_ context.Context, transactionID string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[transactionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneTransaction(tx), nil
}

func (s *InMemoryStore) UpdateTransaction(ctx context.Context, transactionID string, fn Mutator) (*models.Transaction, error) {
	s.txLocks.Lock(transactionID)
	defer s.txLocks.Unlock(transactionID)

	current, err := s.FindTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	persist, err := fn(current)
	if err != nil {
		return nil, err
	}
	if persist {
		s.mu.Lock()
		s.transactions[transactionID] = cloneTransaction(current)
		s.mu.Unlock()
	}
	return current, nil
}
