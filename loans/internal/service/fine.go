package service

import "time"

const day = 24 * time.Hour

// Fine charges ratePerDay for every started day past due. Returning exactly
// at the due instant is on time.
func Fine(due, now time.Time, ratePerDay int) int {
	if !now.After(due) {
		return 0
	}
	late := now.Sub(due)
	days := late / day
	if late%day != 0 {
		days++
	}
	return int(days) * ratePerDay
}
