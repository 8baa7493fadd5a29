package reducer

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"rawrshakScope/internal/model"
	"rawrshakScope/internal/store"
)

// handleOrderPlaced opens a new order in Ready state. The referenced asset
// must already be in the catalog. Redelivery of a known order id is
// ignored so counters stay idempotent.
func (r *Reducer) handleOrderPlaced(ctx context.Context, ev model.OrderPlaced) error {
	if r.campaign.AfterSnapshot(ev.Timestamp) {
		return nil
	}

	tx := store.NewBatch(r.kv)

	exchangeID := model.AddressID(ev.Contract)
	exchange, err := mustLoadExchange(ctx, tx, exchangeID)
	if err != nil {
		return err
	}

	assetKey := model.NewAssetKey(model.AddressID(ev.Order.Asset.ContentAddress), ev.Order.Asset.TokenID)
	if _, ok, err := store.LoadAsset(ctx, tx, assetKey.String()); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("asset %s: %w", assetKey.String(), ErrMissingEntity)
	}

	orderID := ev.OrderID.String()
	if _, ok, err := store.LoadOrder(ctx, tx, orderID); err != nil {
		return err
	} else if ok {
		r.logger.Debug("order already indexed", zap.String("order", orderID))
		return nil
	}

	ownerID := model.AddressID(ev.Order.Owner)
	owner, created, err := r.getOrCreateAccount(ctx, tx, ownerID, ev.Timestamp, nil)
	if err != nil {
		return err
	}
	if created {
		r.seedExchangeActivity(owner, exchange)
	}

	orderType := model.OrderTypeSell
	if ev.Order.IsBuyOrder {
		orderType = model.OrderTypeBuy
	}
	order := &model.Order{
		ID:            orderID,
		Asset:         assetKey.String(),
		Exchange:      exchangeID,
		Owner:         ownerID,
		Type:          orderType,
		Price:         new(big.Int).Set(ev.Order.Price),
		AmountOrdered: new(big.Int).Set(ev.Order.Amount),
		AmountFilled:  new(big.Int),
		AmountClaimed: new(big.Int),
		Status:        model.OrderReady,
		CreatedAt:     ev.Timestamp,
	}

	owner.OrdersCount++
	if !r.campaign.IsDev(ownerID) {
		exchange.OrdersCount++
	}
	r.trackActiveDay(owner, exchange, ev.Timestamp)

	if err := store.SaveOrder(ctx, tx, order); err != nil {
		return err
	}
	if err := store.SaveAccount(ctx, tx, owner); err != nil {
		return err
	}
	if err := store.SaveExchange(ctx, tx, exchange); err != nil {
		return err
	}
	return tx.Flush(ctx)
}

// handleOrdersFilled credits taker and maker volume for each non-zero fill
// and advances the order toward Filled. Zero-amount fill entries are
// skipped entirely.
func (r *Reducer) handleOrdersFilled(ctx context.Context, ev model.OrdersFilled) error {
	if r.campaign.AfterSnapshot(ev.Timestamp) {
		return nil
	}
	if len(ev.OrderIDs) != len(ev.Amounts) {
		return fmt.Errorf("fill batch length mismatch: %d ids, %d amounts",
			len(ev.OrderIDs), len(ev.Amounts))
	}

	tx := store.NewBatch(r.kv)

	exchangeID := model.AddressID(ev.Contract)
	exchange, err := mustLoadExchange(ctx, tx, exchangeID)
	if err != nil {
		return err
	}

	takerID := model.AddressID(ev.Taker)
	taker, created, err := r.getOrCreateAccount(ctx, tx, takerID, ev.Timestamp, nil)
	if err != nil {
		return err
	}
	if created {
		r.seedExchangeActivity(taker, exchange)
	}
	r.trackActiveDay(taker, exchange, ev.Timestamp)

	for i := range ev.OrderIDs {
		amount := ev.Amounts[i]
		if amount.Sign() == 0 {
			continue
		}

		order, err := mustLoadOrder(ctx, tx, ev.OrderIDs[i].String())
		if err != nil {
			return err
		}

		volume := new(big.Int).Mul(amount, order.Price)

		taker.TakerVolume = new(big.Int).Add(taker.TakerVolume, volume)
		taker.OrderFillsCount++

		owner := taker
		if order.Owner != takerID {
			owner, err = mustLoadAccount(ctx, tx, order.Owner)
			if err != nil {
				return err
			}
		}
		owner.MakerVolume = new(big.Int).Add(owner.MakerVolume, volume)

		if !r.campaign.IsDev(takerID) {
			exchange.OrderFillsCount++
			exchange.TakerVolume = new(big.Int).Add(exchange.TakerVolume, volume)
		}
		if !r.campaign.IsDev(order.Owner) {
			exchange.MakerVolume = new(big.Int).Add(exchange.MakerVolume, volume)
		}

		order.AmountFilled = new(big.Int).Add(order.AmountFilled, amount)
		if order.AmountFilled.Cmp(order.AmountOrdered) == 0 {
			order.Status = model.OrderFilled
		} else {
			order.Status = model.OrderPartiallyFilled
		}

		if err := store.SaveOrder(ctx, tx, order); err != nil {
			return err
		}
		if owner != taker {
			if err := store.SaveAccount(ctx, tx, owner); err != nil {
				return err
			}
		}
	}

	if err := store.SaveAccount(ctx, tx, taker); err != nil {
		return err
	}
	if err := store.SaveExchange(ctx, tx, exchange); err != nil {
		return err
	}
	return tx.Flush(ctx)
}

// handleOrdersDeleted cancels a batch of orders. Any unclaimed filled
// remainder is treated as implicitly claimed at cancellation.
func (r *Reducer) handleOrdersDeleted(ctx context.Context, ev model.OrdersDeleted) error {
	if r.campaign.AfterSnapshot(ev.Timestamp) {
		return nil
	}

	tx := store.NewBatch(r.kv)

	exchangeID := model.AddressID(ev.Contract)
	exchange, err := mustLoadExchange(ctx, tx, exchangeID)
	if err != nil {
		return err
	}

	ownerID := model.AddressID(ev.Owner)
	owner, err := mustLoadAccount(ctx, tx, ownerID)
	if err != nil {
		return err
	}

	for _, id := range ev.OrderIDs {
		order, err := mustLoadOrder(ctx, tx, id.String())
		if err != nil {
			return err
		}

		order.Status = model.OrderCancelled
		if order.AmountClaimed.Cmp(order.AmountFilled) != 0 {
			owner.ClaimedOrdersCount++
			if !r.campaign.IsDev(ownerID) {
				exchange.OrdersClaimedCount++
			}
			order.AmountClaimed = new(big.Int).Set(order.AmountFilled)
		}

		if err := store.SaveOrder(ctx, tx, order); err != nil {
			return err
		}
	}

	owner.CancelledOrdersCount += uint64(len(ev.OrderIDs))
	if !r.campaign.IsDev(ownerID) {
		exchange.OrdersCancelledCount += uint64(len(ev.OrderIDs))
	}
	r.trackActiveDay(owner, exchange, ev.Timestamp)

	if err := store.SaveAccount(ctx, tx, owner); err != nil {
		return err
	}
	if err := store.SaveExchange(ctx, tx, exchange); err != nil {
		return err
	}
	return tx.Flush(ctx)
}

// handleOrdersClaimed settles filled orders. A fully filled order moves to
// Claimed; a partially filled one keeps its status while its proceeds are
// claimed.
func (r *Reducer) handleOrdersClaimed(ctx context.Context, ev model.OrdersClaimed) error {
	if r.campaign.AfterSnapshot(ev.Timestamp) {
		return nil
	}

	tx := store.NewBatch(r.kv)

	exchangeID := model.AddressID(ev.Contract)
	exchange, err := mustLoadExchange(ctx, tx, exchangeID)
	if err != nil {
		return err
	}

	ownerID := model.AddressID(ev.Owner)
	owner, err := mustLoadAccount(ctx, tx, ownerID)
	if err != nil {
		return err
	}
	r.trackActiveDay(owner, exchange, ev.Timestamp)

	for _, id := range ev.OrderIDs {
		order, err := mustLoadOrder(ctx, tx, id.String())
		if err != nil {
			return err
		}

		if order.Status == model.OrderFilled {
			order.Status = model.OrderClaimed
		}
		if order.AmountFilled.Cmp(order.AmountClaimed) != 0 {
			order.AmountClaimed = new(big.Int).Set(order.AmountFilled)
			owner.ClaimedOrdersCount++
			if !r.campaign.IsDev(ownerID) {
				exchange.OrdersClaimedCount++
			}
		}

		if err := store.SaveOrder(ctx, tx, order); err != nil {
			return err
		}
	}

	if err := store.SaveAccount(ctx, tx, owner); err != nil {
		return err
	}
	if err := store.SaveExchange(ctx, tx, exchange); err != nil {
		return err
	}
	return tx.Flush(ctx)
}
