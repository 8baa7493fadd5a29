package reducer

import "rawrshakScope/internal/model"

const secondsPerDay = 86400

// isNewDay reports whether current falls on a later UTC day than last.
func isNewDay(last, current uint64) bool {
	return last/secondsPerDay < current/secondsPerDay
}

// trackActiveDay bumps the account's active-day counter on a UTC-day
// boundary and mirrors it into the exchange total, dev address excluded.
func (r *Reducer) trackActiveDay(account *model.Account, exchange *model.Exchange, timestamp uint64) {
	if !isNewDay(account.LastActiveDate, timestamp) {
		return
	}
	account.DaysActive++
	account.LastActiveDate = timestamp
	if !r.campaign.IsDev(account.ID) {
		exchange.TotalUserActiveDays++
	}
}

// seedExchangeActivity mirrors a freshly created account's first active day
// into the exchange total.
func (r *Reducer) seedExchangeActivity(account *model.Account, exchange *model.Exchange) {
	if !r.campaign.IsDev(account.ID) {
		exchange.TotalUserActiveDays++
	}
}
