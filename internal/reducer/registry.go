package reducer

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"rawrshakScope/internal/model"
	"rawrshakScope/internal/store"
)

// handleAddressRegistered classifies a registered address by capability id,
// expands the subscription set, and creates the root aggregate for the
// registered contract. Redelivery is harmless: every creation is
// existence-checked.
func (r *Reducer) handleAddressRegistered(ctx context.Context, ev model.AddressRegistered) error {
	tx := store.NewBatch(r.kv)

	resolverID := model.AddressID(ev.Contract)
	resolver, ok, err := store.LoadResolver(ctx, tx, resolverID)
	if err != nil {
		return err
	}
	if !ok {
		resolver = &model.AddressResolver{ID: resolverID}
		if err := store.SaveResolver(ctx, tx, resolver); err != nil {
			return err
		}
	}

	switch strings.ToLower(ev.CapabilityID) {
	case r.campaign.CapabilityExchange:
		if r.watcher != nil {
			r.watcher.WatchExchange(ev.Target)
		}
		exchangeID := model.AddressID(ev.Target)
		if _, ok, err := store.LoadExchange(ctx, tx, exchangeID); err != nil {
			return err
		} else if !ok {
			if err := store.SaveExchange(ctx, tx, model.NewExchange(exchangeID)); err != nil {
				return err
			}
			resolver.Exchange = exchangeID
			if err := store.SaveResolver(ctx, tx, resolver); err != nil {
				return err
			}
		}

	case r.campaign.CapabilityContentFactory:
		if r.watcher != nil {
			r.watcher.WatchFactory(ev.Target)
		}
		factoryID := model.AddressID(ev.Target)
		if _, ok, err := store.LoadFactory(ctx, tx, factoryID); err != nil {
			return err
		} else if !ok {
			if err := store.SaveFactory(ctx, tx, &model.ContentFactory{ID: factoryID}); err != nil {
				return err
			}
			if err := store.SaveStats(ctx, tx, model.NewContentStatisticsManager(factoryID)); err != nil {
				return err
			}
		}

	default:
		r.logger.Info("ignoring registered address",
			zap.String("capability", ev.CapabilityID),
			zap.String("target", model.AddressID(ev.Target)),
		)
	}

	return tx.Flush(ctx)
}
