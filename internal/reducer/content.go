package reducer

import (
	"context"

	"go.uber.org/zap"

	"rawrshakScope/internal/model"
	"rawrshakScope/internal/store"
)

// handleContractsDeployed grows the catalog with a freshly deployed content
// contract and subscribes to it and its manager.
func (r *Reducer) handleContractsDeployed(ctx context.Context, ev model.ContractsDeployed) error {
	if r.campaign.AfterSnapshot(ev.Timestamp) {
		return nil
	}

	tx := store.NewBatch(r.kv)

	factoryID := model.AddressID(ev.Contract)
	stats, err := mustLoadStats(ctx, tx, factoryID)
	if err != nil {
		return err
	}

	deployerID := model.AddressID(ev.TxSender)
	if !r.campaign.IsDev(deployerID) {
		stats.ContentsCount++
	}

	deployer, _, err := r.getOrCreateAccount(ctx, tx, deployerID, ev.Timestamp, stats)
	if err != nil {
		return err
	}
	deployer.ContractsDeployedCount++
	if err := store.SaveAccount(ctx, tx, deployer); err != nil {
		return err
	}

	contentID := model.AddressID(ev.Content)
	if _, ok, err := store.LoadContent(ctx, tx, contentID); err != nil {
		return err
	} else if !ok {
		content := &model.Content{ID: contentID, Factory: factoryID}
		if err := store.SaveContent(ctx, tx, content); err != nil {
			return err
		}
	}

	if r.watcher != nil {
		r.watcher.WatchContent(ev.Content)
		r.watcher.WatchContentManager(ev.ContentManager)
	}

	if err := store.SaveStats(ctx, tx, stats); err != nil {
		return err
	}
	return tx.Flush(ctx)
}

// handleAssetsAdded creates one Asset row per new token id. Creation is
// existence-checked so redelivery cannot duplicate rows or skew counters;
// every counter increments per actually created asset.
func (r *Reducer) handleAssetsAdded(ctx context.Context, ev model.AssetsAdded) error {
	if r.campaign.AfterSnapshot(ev.Timestamp) {
		return nil
	}

	tx := store.NewBatch(r.kv)

	contentID := model.AddressID(ev.Parent)
	content, err := mustLoadContent(ctx, tx, contentID)
	if err != nil {
		return err
	}
	stats, err := mustLoadStats(ctx, tx, content.Factory)
	if err != nil {
		return err
	}

	deployerID := model.AddressID(ev.TxSender)
	deployer, _, err := r.getOrCreateAccount(ctx, tx, deployerID, ev.Timestamp, stats)
	if err != nil {
		return err
	}

	for _, tokenID := range ev.TokenIDs {
		key := model.NewAssetKey(contentID, tokenID)
		if _, ok, err := store.LoadAsset(ctx, tx, key.String()); err != nil {
			return err
		} else if ok {
			r.logger.Debug("asset already indexed", zap.String("asset", key.String()))
			continue
		}

		asset := &model.Asset{ID: key.String(), TokenID: tokenID, Parent: contentID}
		if err := store.SaveAsset(ctx, tx, asset); err != nil {
			return err
		}

		content.AssetsCount++
		deployer.AssetsDeployedCount++
		if !r.campaign.IsDev(deployerID) {
			stats.AssetsCount++
		}
	}

	if err := store.SaveContent(ctx, tx, content); err != nil {
		return err
	}
	if err := store.SaveAccount(ctx, tx, deployer); err != nil {
		return err
	}
	if err := store.SaveStats(ctx, tx, stats); err != nil {
		return err
	}
	return tx.Flush(ctx)
}
