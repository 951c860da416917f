package synth

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// engineState is the persistence boundary for per-user positions. Loaded
// positions are mutable staging copies; nothing is visible to other callers
// until PutPosition commits.
type engineState interface {
	GetPosition(addr common.Address) (*Position, error)
	PutPosition(position *Position) error
}

// MemoryState is the in-memory engineState used by the daemon and tests.
// Entries are zeroed as users exit, never deleted.
type MemoryState struct {
	mu        sync.RWMutex
	positions map[common.Address]*Position
}

// NewMemoryState constructs an empty position store.
func NewMemoryState() *MemoryState {
	return &MemoryState{positions: make(map[common.Address]*Position)}
}

// GetPosition returns a deep copy of the stored position, or nil when the
// user has never interacted with the protocol.
func (s *MemoryState) GetPosition(addr common.Address) (*Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.positions[addr].Clone(), nil
}

// PutPosition commits the staged position.
func (s *MemoryState) PutPosition(position *Position) error {
	if position == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[position.Address] = position.Clone()
	return nil
}

// Addresses lists every account with a stored position, in unspecified order.
func (s *MemoryState) Addresses() []common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]common.Address, 0, len(s.positions))
	for addr := range s.positions {
		out = append(out, addr)
	}
	return out
}
