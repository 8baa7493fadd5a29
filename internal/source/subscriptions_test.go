package source

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestSubscriptionSetDeduplicates(t *testing.T) {
	a := common.HexToAddress("0x01")
	b := common.HexToAddress("0x02")

	subs := NewSubscriptionSet(a)
	subs.WatchExchange(a)
	subs.WatchContent(b)
	subs.WatchFactory(b)

	if subs.Len() != 2 {
		t.Fatalf("len = %d, want 2", subs.Len())
	}
	addrs := subs.Addresses()
	if len(addrs) != 2 || addrs[0] != a || addrs[1] != b {
		t.Fatalf("addresses = %v", addrs)
	}
}

func TestTakeAddedExcludesSeeds(t *testing.T) {
	a := common.HexToAddress("0x01")
	b := common.HexToAddress("0x02")

	subs := NewSubscriptionSet(a)
	if added := subs.TakeAdded(); added != nil {
		t.Fatalf("seeds reported as added: %v", added)
	}

	subs.WatchContent(b)
	// Already a member via seeding, must not reappear.
	subs.WatchExchange(a)

	added := subs.TakeAdded()
	if len(added) != 1 || added[0] != b {
		t.Fatalf("added = %v, want [%s]", added, b.Hex())
	}

	// Drained.
	if added := subs.TakeAdded(); added != nil {
		t.Fatalf("second take not empty: %v", added)
	}
}
