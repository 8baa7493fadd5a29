package reducer

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"rawrshakScope/internal/model"
	"rawrshakScope/internal/store"
)

func getBalance(t *testing.T, kv store.KV, key model.BalanceKey) *model.AssetBalance {
	t.Helper()
	balance, ok, err := store.LoadBalance(context.Background(), kv, key.String())
	if err != nil {
		t.Fatalf("load balance: %v", err)
	}
	if !ok {
		t.Fatalf("balance %s not found", key.String())
	}
	return balance
}

func TestMintCreatesHolderAndBalance(t *testing.T) {
	r, kv, _ := newTestReducer(t)
	seedCatalog(t, r, contentAddr, 0)

	mint(t, r, contentAddr, bob, 0, 1, baseTime)

	holder := getAccount(t, kv, bob)
	if holder.UniqueAssetsCount != 1 {
		t.Fatalf("uniqueAssetsCount = %d, want 1", holder.UniqueAssetsCount)
	}

	key := model.NewBalanceKey(model.AddressID(contentAddr), model.AddressID(bob), big.NewInt(0))
	balance := getBalance(t, kv, key)
	if balance.Amount.Int64() != 1 {
		t.Fatalf("balance = %s, want 1", balance.Amount)
	}

	stats := getStats(t, kv)
	if stats.UniqueAssetsCount != 1 {
		t.Fatalf("stats uniqueAssetsCount = %d, want 1", stats.UniqueAssetsCount)
	}
	// alice (deployer) plus bob.
	if stats.AccountsCount != 2 {
		t.Fatalf("accountsCount = %d, want 2", stats.AccountsCount)
	}
}

func TestMintMoreOfHeldAssetKeepsUniqueCount(t *testing.T) {
	r, kv, _ := newTestReducer(t)
	seedCatalog(t, r, contentAddr, 0)

	mint(t, r, contentAddr, bob, 0, 1, baseTime)
	mint(t, r, contentAddr, bob, 0, 4, baseTime)

	holder := getAccount(t, kv, bob)
	if holder.UniqueAssetsCount != 1 {
		t.Fatalf("uniqueAssetsCount = %d, want 1", holder.UniqueAssetsCount)
	}
	key := model.NewBalanceKey(model.AddressID(contentAddr), model.AddressID(bob), big.NewInt(0))
	if got := getBalance(t, kv, key).Amount.Int64(); got != 5 {
		t.Fatalf("balance = %d, want 5", got)
	}
	if stats := getStats(t, kv); stats.UniqueAssetsCount != 1 {
		t.Fatalf("stats uniqueAssetsCount = %d, want 1", stats.UniqueAssetsCount)
	}
}

func TestTransferMovesUniqueCounts(t *testing.T) {
	r, kv, _ := newTestReducer(t)
	seedCatalog(t, r, contentAddr, 0)

	mint(t, r, contentAddr, alice, 0, 2, baseTime)
	transfer(t, r, contentAddr, alice, bob, 0, 2, baseTime)

	sender := getAccount(t, kv, alice)
	if sender.UniqueAssetsCount != 0 {
		t.Fatalf("sender uniqueAssetsCount = %d, want 0", sender.UniqueAssetsCount)
	}
	receiver := getAccount(t, kv, bob)
	if receiver.UniqueAssetsCount != 1 {
		t.Fatalf("receiver uniqueAssetsCount = %d, want 1", receiver.UniqueAssetsCount)
	}

	senderKey := model.NewBalanceKey(model.AddressID(contentAddr), model.AddressID(alice), big.NewInt(0))
	if got := getBalance(t, kv, senderKey).Amount.Int64(); got != 0 {
		t.Fatalf("sender balance = %d, want 0", got)
	}
	receiverKey := model.NewBalanceKey(model.AddressID(contentAddr), model.AddressID(bob), big.NewInt(0))
	if got := getBalance(t, kv, receiverKey).Amount.Int64(); got != 2 {
		t.Fatalf("receiver balance = %d, want 2", got)
	}

	// The factory-wide unique count only ever grows.
	if stats := getStats(t, kv); stats.UniqueAssetsCount != 2 {
		t.Fatalf("stats uniqueAssetsCount = %d, want 2", stats.UniqueAssetsCount)
	}
}

func TestPartialTransferKeepsSenderUnique(t *testing.T) {
	r, kv, _ := newTestReducer(t)
	seedCatalog(t, r, contentAddr, 0)

	mint(t, r, contentAddr, alice, 0, 3, baseTime)
	transfer(t, r, contentAddr, alice, bob, 0, 1, baseTime)

	if got := getAccount(t, kv, alice).UniqueAssetsCount; got != 1 {
		t.Fatalf("sender uniqueAssetsCount = %d, want 1", got)
	}
}

func TestTransferBatch(t *testing.T) {
	r, kv, _ := newTestReducer(t)
	seedCatalog(t, r, contentAddr, 0, 1)

	apply(t, r, model.TransferBatch{
		EventMeta: meta(contentAddr, bob, baseTime),
		Operator:  bob,
		To:        bob,
		TokenIDs:  []*big.Int{big.NewInt(0), big.NewInt(1)},
		Amounts:   []*big.Int{big.NewInt(1), big.NewInt(2)},
	})

	if got := getAccount(t, kv, bob).UniqueAssetsCount; got != 2 {
		t.Fatalf("uniqueAssetsCount = %d, want 2", got)
	}
}

func TestTransferBatchLengthMismatch(t *testing.T) {
	r, _, _ := newTestReducer(t)
	seedCatalog(t, r, contentAddr, 0)

	err := r.Apply(context.Background(), model.TransferBatch{
		EventMeta: meta(contentAddr, bob, baseTime),
		To:        bob,
		TokenIDs:  []*big.Int{big.NewInt(0)},
		Amounts:   []*big.Int{big.NewInt(1), big.NewInt(2)},
	})
	if err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestSenderWithoutBalanceIsFatal(t *testing.T) {
	r, _, _ := newTestReducer(t)
	seedCatalog(t, r, contentAddr, 0)

	err := r.Apply(context.Background(), model.TransferSingle{
		EventMeta: meta(contentAddr, alice, baseTime),
		From:      alice,
		To:        bob,
		TokenID:   big.NewInt(0),
		Amount:    big.NewInt(1),
	})
	if !errors.Is(err, ErrMissingEntity) {
		t.Fatalf("expected ErrMissingEntity, got %v", err)
	}
}

func TestFailedTransferLeavesStoreUntouched(t *testing.T) {
	r, kv, _ := newTestReducer(t)
	seedCatalog(t, r, contentAddr, 0, 1)

	before := kv.Len()

	// Receiver leg would create entities, but the sender leg fails; the
	// staged writes must never reach the store.
	err := r.Apply(context.Background(), model.TransferSingle{
		EventMeta: meta(contentAddr, alice, baseTime),
		From:      alice,
		To:        bob,
		TokenID:   big.NewInt(0),
		Amount:    big.NewInt(1),
	})
	if !errors.Is(err, ErrMissingEntity) {
		t.Fatalf("expected ErrMissingEntity, got %v", err)
	}

	if kv.Len() != before {
		t.Fatalf("failed event leaked writes: %d entries, want %d", kv.Len(), before)
	}
}

func TestSnapshotCutoffSkipsTransfers(t *testing.T) {
	r, kv, _ := newTestReducer(t)
	seedCatalog(t, r, contentAddr, 0)

	mint(t, r, contentAddr, bob, 0, 1, r.campaign.SnapshotTimestamp+1)

	key := model.NewBalanceKey(model.AddressID(contentAddr), model.AddressID(bob), big.NewInt(0))
	if _, ok, _ := store.LoadBalance(context.Background(), kv, key.String()); ok {
		t.Fatalf("balance created after the snapshot cutoff")
	}
}
