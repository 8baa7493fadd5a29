package reducer

import (
	"context"
	"math/big"

	"rawrshakScope/internal/model"
	"rawrshakScope/internal/store"
)

// scoreWeekly routes a transfer of a promotional-contract token into the
// weekly campaign scoring. Tokens outside every weekly whitelist are
// ignored.
func (r *Reducer) scoreWeekly(
	ctx context.Context,
	tx *store.Batch,
	account *model.Account,
	stats *model.ContentStatisticsManager,
	contentID string,
	tokenID *big.Int,
	timestamp uint64,
	balance *big.Int,
	newlyAcquired bool,
) error {
	if !r.campaign.IsPromotional(contentID) {
		return nil
	}
	week := r.campaign.WeekOf(tokenID)
	if week == 0 {
		return nil
	}
	return r.updateWeeklyPoints(ctx, tx, week, account, stats, tokenID,
		timestamp, balance, newlyAcquired)
}

// updateWeeklyPoints awards or revokes campaign points for one account and
// week. First participation seeds the week's baseline points. Holding
// exactly one unit of a whitelisted token scores +1 for a correct answer
// and -1 otherwise, once per acquisition. Any other holding disqualifies
// the account for the week: its points are zeroed, mirrored out of the
// weekly total, and the disqualified flag locks further scoring.
func (r *Reducer) updateWeeklyPoints(
	ctx context.Context,
	tx *store.Batch,
	week int,
	account *model.Account,
	stats *model.ContentStatisticsManager,
	tokenID *big.Int,
	timestamp uint64,
	balance *big.Int,
	newlyAcquired bool,
) error {
	deadline := r.campaign.WeekEnd(week)
	if deadline == 0 || timestamp > deadline {
		return nil
	}

	key := model.NewWeeklyKey(account.ID, week)
	participation, ok, err := store.LoadWeekly(ctx, tx, key.String())
	if err != nil {
		return err
	}
	if !ok {
		participation = &model.WeeklyEventParticipation{
			ID:      key.String(),
			Account: account.ID,
			Week:    week,
			Points:  r.campaign.BaselinePoints(week),
		}
		switch week {
		case 1:
			account.Week1 = participation.ID
		case 2:
			account.Week2 = participation.ID
		case 3:
			account.Week3 = participation.ID
		}
		stats.AddWeekPoints(week, participation.Points)
	}

	one := big.NewInt(1)
	if balance.Cmp(one) == 0 {
		if !participation.Disqualified && newlyAcquired {
			if r.campaign.IsCorrectToken(tokenID) {
				participation.Points = new(big.Int).Add(participation.Points, one)
				stats.AddWeekPoints(week, one)
			} else {
				participation.Points = new(big.Int).Sub(participation.Points, one)
				stats.SubWeekPoints(week, one)
			}
		}
	} else {
		// The holding moved off exactly one unit before the deadline:
		// the week is forfeited for good.
		stats.SubWeekPoints(week, participation.Points)
		participation.Disqualified = true
		participation.Points = new(big.Int)
	}

	return store.SaveWeekly(ctx, tx, participation)
}
