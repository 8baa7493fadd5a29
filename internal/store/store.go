package store

import (
	"context"
	"encoding/json"
	"fmt"

	"rawrshakScope/internal/model"
)

// Kind names segregate the key space per entity type.
const (
	KindResolver = "resolver"
	KindExchange = "exchange"
	KindFactory  = "factory"
	KindStats    = "stats"
	KindContent  = "content"
	KindAsset    = "asset"
	KindAccount  = "account"
	KindBalance  = "balance"
	KindOrder    = "order"
	KindWeekly   = "weekly"
)

// KV is key-addressed entity persistence with last-write-wins semantics
// per (kind, key).
type KV interface {
	Get(ctx context.Context, kind, key string) ([]byte, bool, error)
	Put(ctx context.Context, kind, key string, value []byte) error
}

func load[T any](ctx context.Context, kv KV, kind, key string) (*T, bool, error) {
	data, ok, err := kv.Get(ctx, kind, key)
	if err != nil {
		return nil, false, fmt.Errorf("load %s %s: %w", kind, key, err)
	}
	if !ok {
		return nil, false, nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false, fmt.Errorf("decode %s %s: %w", kind, key, err)
	}
	return &v, true, nil
}

func save(ctx context.Context, kv KV, kind, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", kind, key, err)
	}
	if err := kv.Put(ctx, kind, key, data); err != nil {
		return fmt.Errorf("save %s %s: %w", kind, key, err)
	}
	return nil
}

func LoadResolver(ctx context.Context, kv KV, id string) (*model.AddressResolver, bool, error) {
	return load[model.AddressResolver](ctx, kv, KindResolver, id)
}

func SaveResolver(ctx context.Context, kv KV, v *model.AddressResolver) error {
	return save(ctx, kv, KindResolver, v.ID, v)
}

func LoadExchange(ctx context.Context, kv KV, id string) (*model.Exchange, bool, error) {
	return load[model.Exchange](ctx, kv, KindExchange, id)
}

func SaveExchange(ctx context.Context, kv KV, v *model.Exchange) error {
	return save(ctx, kv, KindExchange, v.ID, v)
}

func LoadFactory(ctx context.Context, kv KV, id string) (*model.ContentFactory, bool, error) {
	return load[model.ContentFactory](ctx, kv, KindFactory, id)
}

func SaveFactory(ctx context.Context, kv KV, v *model.ContentFactory) error {
	return save(ctx, kv, KindFactory, v.ID, v)
}

func LoadStats(ctx context.Context, kv KV, id string) (*model.ContentStatisticsManager, bool, error) {
	return load[model.ContentStatisticsManager](ctx, kv, KindStats, id)
}

func SaveStats(ctx context.Context, kv KV, v *model.ContentStatisticsManager) error {
	return save(ctx, kv, KindStats, v.ID, v)
}

func LoadContent(ctx context.Context, kv KV, id string) (*model.Content, bool, error) {
	return load[model.Content](ctx, kv, KindContent, id)
}

func SaveContent(ctx context.Context, kv KV, v *model.Content) error {
	return save(ctx, kv, KindContent, v.ID, v)
}

func LoadAsset(ctx context.Context, kv KV, id string) (*model.Asset, bool, error) {
	return load[model.Asset](ctx, kv, KindAsset, id)
}

func SaveAsset(ctx context.Context, kv KV, v *model.Asset) error {
	return save(ctx, kv, KindAsset, v.ID, v)
}

func LoadAccount(ctx context.Context, kv KV, id string) (*model.Account, bool, error) {
	return load[model.Account](ctx, kv, KindAccount, id)
}

func SaveAccount(ctx context.Context, kv KV, v *model.Account) error {
	return save(ctx, kv, KindAccount, v.ID, v)
}

func LoadBalance(ctx context.Context, kv KV, id string) (*model.AssetBalance, bool, error) {
	return load[model.AssetBalance](ctx, kv, KindBalance, id)
}

func SaveBalance(ctx context.Context, kv KV, v *model.AssetBalance) error {
	return save(ctx, kv, KindBalance, v.ID, v)
}

func LoadOrder(ctx context.Context, kv KV, id string) (*model.Order, bool, error) {
	return load[model.Order](ctx, kv, KindOrder, id)
}

func SaveOrder(ctx context.Context, kv KV, v *model.Order) error {
	return save(ctx, kv, KindOrder, v.ID, v)
}

func LoadWeekly(ctx context.Context, kv KV, id string) (*model.WeeklyEventParticipation, bool, error) {
	return load[model.WeeklyEventParticipation](ctx, kv, KindWeekly, id)
}

func SaveWeekly(ctx context.Context, kv KV, v *model.WeeklyEventParticipation) error {
	return save(ctx, kv, KindWeekly, v.ID, v)
}
