// Package interest applies daily-compounded interest to active savings
// accounts. Accrue holds the arithmetic; Engine runs it across the table one
// locked account at a time.
package interest

import (
	"time"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
)

const day = 24 * time.Hour

// ElapsedDays returns the number of whole days between last and now. It is
// never negative.
func ElapsedDays(last, now time.Time) int {
	d := now.Sub(last)
	if d < day {
		return 0
	}
	return int(d / day)
}

// Accrue compounds acct's saved amount once per whole day elapsed since its
// last accrual, using the policy rate rather than the stored one. It reports
// false and leaves acct untouched when less than a day has passed.
//
// The growth is applied by repeated multiplication, one step per day, so the
// float result matches the day-by-day reference exactly.
func Accrue(acct *domain.SavingsAccount, now time.Time) bool {
	days := ElapsedDays(acct.LastInterestDate, now)
	if days < 1 {
		return false
	}

	dailyRate := acct.PolicyAnnualRate() / 365
	amount := acct.SavedAmount
	for i := 0; i < days; i++ {
		amount *= 1 + dailyRate
	}

	acct.TotalInterestAccrued += amount - acct.SavedAmount
	acct.SavedAmount = amount
	acct.LastInterestDate = now

	if acct.TargetReached() {
		acct.Status = domain.SavingsStatusCompleted
	}
	return true
}
