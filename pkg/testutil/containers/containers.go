//go:build integration

// Package containers starts the backing services used by integration tests.
// Each container is started once per test binary and shared by every suite in it.
package containers

import (
	"sync"
	"testing"
)

// Manager hands out lazily started, shared containers.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
	kafka    *KafkaContainer
	redis    *RedisContainer
}

var (
	globalManager *Manager
	initOnce      sync.Once
)

// GetManager returns the process-wide manager.
func GetManager() *Manager {
	initOnce.Do(func() {
		globalManager = &Manager{}
	})
	return globalManager
}

// shared returns *slot, calling start under the manager lock when it is still nil.
func shared[C any](m *Manager, t *testing.T, slot **C, start func(*testing.T) *C) *C {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if *slot == nil {
		*slot = start(t)
	}
	return *slot
}

// GetPostgres returns the shared Postgres container with migrations applied.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	return shared(m, t, &m.postgres, NewPostgresContainer)
}

// GetKafka returns the shared Kafka-compatible broker.
func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	t.Helper()
	return shared(m, t, &m.kafka, NewKafkaContainer)
}

// GetRedis returns the shared Redis container.
func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	return shared(m, t, &m.redis, NewRedisContainer)
}
