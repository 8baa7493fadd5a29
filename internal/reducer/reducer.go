package reducer

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"rawrshakScope/internal/config"
	"rawrshakScope/internal/model"
	"rawrshakScope/internal/store"
)

// ErrMissingEntity marks a consistency violation: an entity that must
// already exist (a sender's balance, an order being filled, the exchange
// for a known address) was not found. Skipping past it would desynchronize
// the aggregates, so callers are expected to stop on it.
var ErrMissingEntity = errors.New("required entity missing")

var zeroAddress = common.Address{}

// Watcher receives subscription directives when the reducer discovers a
// contract whose events it needs.
type Watcher interface {
	WatchExchange(addr common.Address)
	WatchFactory(addr common.Address)
	WatchContent(addr common.Address)
	WatchContentManager(addr common.Address)
}

// Reducer applies contract events to the entity graph one at a time. Every
// handler stages its writes in a batch and flushes them before returning,
// so a failed event leaves the store untouched and can be retried from
// scratch.
type Reducer struct {
	campaign config.Campaign
	kv       store.KV
	watcher  Watcher
	logger   *zap.Logger
}

func New(campaign config.Campaign, kv store.KV, watcher Watcher, logger *zap.Logger) *Reducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reducer{
		campaign: campaign,
		kv:       kv,
		watcher:  watcher,
		logger:   logger,
	}
}

// Apply dispatches one decoded event to its handler.
func (r *Reducer) Apply(ctx context.Context, ev model.Event) error {
	switch e := ev.(type) {
	case model.AddressRegistered:
		return r.handleAddressRegistered(ctx, e)
	case model.ContractsDeployed:
		return r.handleContractsDeployed(ctx, e)
	case model.AssetsAdded:
		return r.handleAssetsAdded(ctx, e)
	case model.TransferSingle:
		return r.handleTransferSingle(ctx, e)
	case model.TransferBatch:
		return r.handleTransferBatch(ctx, e)
	case model.OrderPlaced:
		return r.handleOrderPlaced(ctx, e)
	case model.OrdersFilled:
		return r.handleOrdersFilled(ctx, e)
	case model.OrdersDeleted:
		return r.handleOrdersDeleted(ctx, e)
	case model.OrdersClaimed:
		return r.handleOrdersClaimed(ctx, e)
	default:
		r.logger.Warn("unhandled event type", zap.Any("event", ev))
		return nil
	}
}

// getOrCreateAccount loads an account, creating it on first sight. When a
// stats manager is in scope, a creation counts toward its accountsCount
// unless the address is the excluded dev address. The created flag lets
// callers apply their own creation side effects.
func (r *Reducer) getOrCreateAccount(
	ctx context.Context,
	tx *store.Batch,
	id string,
	timestamp uint64,
	stats *model.ContentStatisticsManager,
) (*model.Account, bool, error) {
	account, ok, err := store.LoadAccount(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}
	if ok {
		return account, false, nil
	}

	account = model.NewAccount(id, timestamp)
	if stats != nil && !r.campaign.IsDev(id) {
		stats.AccountsCount++
	}
	if err := store.SaveAccount(ctx, tx, account); err != nil {
		return nil, false, err
	}
	return account, true, nil
}

func (r *Reducer) getOrCreateBalance(
	ctx context.Context,
	tx *store.Batch,
	key model.BalanceKey,
	assetID, ownerID string,
) (*model.AssetBalance, bool, error) {
	balance, ok, err := store.LoadBalance(ctx, tx, key.String())
	if err != nil {
		return nil, false, err
	}
	if ok {
		return balance, false, nil
	}

	balance = model.NewAssetBalance(key.String(), assetID, ownerID)
	if err := store.SaveBalance(ctx, tx, balance); err != nil {
		return nil, false, err
	}
	return balance, true, nil
}

// mustLoadExchange loads the exchange aggregate for an emitting contract.
// Exchange events only arrive for contracts discovered via registration, so
// absence is fatal.
func mustLoadExchange(ctx context.Context, tx *store.Batch, id string) (*model.Exchange, error) {
	exchange, ok, err := store.LoadExchange(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("exchange %s: %w", id, ErrMissingEntity)
	}
	return exchange, nil
}

func mustLoadStats(ctx context.Context, tx *store.Batch, id string) (*model.ContentStatisticsManager, error) {
	stats, ok, err := store.LoadStats(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("statistics manager %s: %w", id, ErrMissingEntity)
	}
	return stats, nil
}

func mustLoadContent(ctx context.Context, tx *store.Batch, id string) (*model.Content, error) {
	content, ok, err := store.LoadContent(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("content %s: %w", id, ErrMissingEntity)
	}
	return content, nil
}

func mustLoadAccount(ctx context.Context, tx *store.Batch, id string) (*model.Account, error) {
	account, ok, err := store.LoadAccount(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, ErrMissingEntity)
	}
	return account, nil
}

func mustLoadOrder(ctx context.Context, tx *store.Batch, id string) (*model.Order, error) {
	order, ok, err := store.LoadOrder(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrMissingEntity)
	}
	return order, nil
}
