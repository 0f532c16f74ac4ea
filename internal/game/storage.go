package game

import "sync"

// KeyValueStore persists small integer flags such as cutscene completion
// and pressure plate state. Implementations must be safe for concurrent
// use; the world only touches them from the reducer and its queries.
type KeyValueStore interface {
	Get(key string) (int, bool)
	Set(key string, value int) error
}

// InventoryReader answers how many units of an item a player holds.
type InventoryReader interface {
	Count(playerIndex int, species SpeciesID) int
}

// MemoryStore is an in-process KeyValueStore.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]int)}
}

func (s *MemoryStore) Get(key string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// emptyInventory is used when a world has no inventory attached.
type emptyInventory struct{}

func (emptyInventory) Count(int, SpeciesID) int { return 0 }
