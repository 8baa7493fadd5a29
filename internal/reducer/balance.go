package reducer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"rawrshakScope/internal/model"
	"rawrshakScope/internal/store"
)

func (r *Reducer) handleTransferSingle(ctx context.Context, ev model.TransferSingle) error {
	return r.applyTransfers(ctx, ev.EventMeta, ev.From, ev.To,
		[]*big.Int{ev.TokenID}, []*big.Int{ev.Amount})
}

func (r *Reducer) handleTransferBatch(ctx context.Context, ev model.TransferBatch) error {
	if len(ev.TokenIDs) != len(ev.Amounts) {
		return fmt.Errorf("transfer batch length mismatch: %d ids, %d amounts",
			len(ev.TokenIDs), len(ev.Amounts))
	}
	return r.applyTransfers(ctx, ev.EventMeta, ev.From, ev.To, ev.TokenIDs, ev.Amounts)
}

// applyTransfers maintains balance ledgers and unique-asset counts for each
// (tokenId, amount) pair. The zero address on either side marks mint/burn
// and skips that side. A sender without an existing balance row is a
// consistency violation, not a recoverable case.
func (r *Reducer) applyTransfers(
	ctx context.Context,
	meta model.EventMeta,
	from, to common.Address,
	tokenIDs, amounts []*big.Int,
) error {
	if r.campaign.AfterSnapshot(meta.Timestamp) {
		return nil
	}

	tx := store.NewBatch(r.kv)

	contentID := model.AddressID(meta.Contract)
	content, err := mustLoadContent(ctx, tx, contentID)
	if err != nil {
		return err
	}
	stats, err := mustLoadStats(ctx, tx, content.Factory)
	if err != nil {
		return err
	}

	for i := range tokenIDs {
		tokenID := tokenIDs[i]
		amount := amounts[i]
		assetKey := model.NewAssetKey(contentID, tokenID)

		if to != zeroAddress {
			toID := model.AddressID(to)
			receiver, _, err := r.getOrCreateAccount(ctx, tx, toID, meta.Timestamp, stats)
			if err != nil {
				return err
			}

			balanceKey := model.NewBalanceKey(contentID, toID, tokenID)
			balance, _, err := r.getOrCreateBalance(ctx, tx, balanceKey, assetKey.String(), toID)
			if err != nil {
				return err
			}

			newlyAcquired := balance.Amount.Sign() == 0
			if newlyAcquired {
				receiver.UniqueAssetsCount++
				if !r.campaign.IsDev(toID) {
					stats.UniqueAssetsCount++
				}
			}
			balance.Amount = new(big.Int).Add(balance.Amount, amount)

			if err := r.scoreWeekly(ctx, tx, receiver, stats, contentID, tokenID,
				meta.Timestamp, balance.Amount, newlyAcquired); err != nil {
				return err
			}

			if err := store.SaveBalance(ctx, tx, balance); err != nil {
				return err
			}
			if err := store.SaveAccount(ctx, tx, receiver); err != nil {
				return err
			}
		}

		if from != zeroAddress {
			fromID := model.AddressID(from)
			sender, _, err := r.getOrCreateAccount(ctx, tx, fromID, meta.Timestamp, stats)
			if err != nil {
				return err
			}

			balanceKey := model.NewBalanceKey(contentID, fromID, tokenID)
			balance, ok, err := store.LoadBalance(ctx, tx, balanceKey.String())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("sender balance %s: %w", balanceKey.String(), ErrMissingEntity)
			}

			wasHeld := balance.Amount.Sign() > 0
			balance.Amount = new(big.Int).Sub(balance.Amount, amount)
			if wasHeld && balance.Amount.Sign() == 0 && sender.UniqueAssetsCount > 0 {
				sender.UniqueAssetsCount--
			}

			if err := r.scoreWeekly(ctx, tx, sender, stats, contentID, tokenID,
				meta.Timestamp, balance.Amount, false); err != nil {
				return err
			}

			if err := store.SaveBalance(ctx, tx, balance); err != nil {
				return err
			}
			if err := store.SaveAccount(ctx, tx, sender); err != nil {
				return err
			}
		}
	}

	if err := store.SaveStats(ctx, tx, stats); err != nil {
		return err
	}
	return tx.Flush(ctx)
}
