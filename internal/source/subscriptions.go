package source

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// SubscriptionSet tracks the contract addresses whose logs the runner
// fetches. The reducer grows the set as registry and factory events
// announce new contracts.
type SubscriptionSet struct {
	mu    sync.Mutex
	set   map[common.Address]struct{}
	added []common.Address
}

// NewSubscriptionSet seeds the set with the initial addresses. Seeds
// are not reported by TakeAdded.
func NewSubscriptionSet(seeds ...common.Address) *SubscriptionSet {
	s := &SubscriptionSet{set: make(map[common.Address]struct{})}
	for _, addr := range seeds {
		s.set[addr] = struct{}{}
	}
	return s
}

func (s *SubscriptionSet) add(addr common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.set[addr]; ok {
		return
	}
	s.set[addr] = struct{}{}
	s.added = append(s.added, addr)
}

// WatchExchange subscribes to an exchange contract.
func (s *SubscriptionSet) WatchExchange(addr common.Address) { s.add(addr) }

// WatchFactory subscribes to a content factory contract.
func (s *SubscriptionSet) WatchFactory(addr common.Address) { s.add(addr) }

// WatchContent subscribes to a content (ERC-1155) contract.
func (s *SubscriptionSet) WatchContent(addr common.Address) { s.add(addr) }

// WatchContentManager subscribes to a content manager contract.
func (s *SubscriptionSet) WatchContentManager(addr common.Address) { s.add(addr) }

// Addresses returns the current subscription set in a stable order.
func (s *SubscriptionSet) Addresses() []common.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]common.Address, 0, len(s.set))
	for addr := range s.set {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Hex() < out[j].Hex()
	})
	return out
}

// TakeAdded drains the addresses subscribed since the last call.
func (s *SubscriptionSet) TakeAdded() []common.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.added) == 0 {
		return nil
	}
	out := s.added
	s.added = nil
	return out
}

// Len reports how many addresses are subscribed.
func (s *SubscriptionSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.set)
}
