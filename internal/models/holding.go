package models

import "time"

// Holding is the per-holder share record. Each holder owns exactly one row,
// created with a zero count alongside the account.
type Holding struct {
	UserID      string    `db:"user_id"`
	ShareCount  int64     `db:"share_count"`
	Note        string    `db:"note"`
	LastUpdated time.Time `db:"last_updated"`
}

// Company is the singleton record holding the authorized share total used as
// the denominator for every ownership-percentage calculation.
type Company struct {
	TotalShares int64     `db:"total_shares"`
	Name        string    `db:"name"`
	LastUpdated time.Time `db:"last_updated"`
}

// OwnershipPercentage derives a holder's stake from the company total.
// A zero total yields zero rather than a division error.
func OwnershipPercentage(count, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// HolderSummary is one row of the admin dashboard listing.
type HolderSummary struct {
	ID         string
	Name       string
	Email      string
	ShareCount int64
	Percentage float64
}
