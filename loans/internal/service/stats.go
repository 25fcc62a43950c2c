package service

import (
	"time"

	"github.com/Astemirdum/library-loans/loans/internal/model"
)

// Aggregate computes the dashboard counters. Fines count toward the month of
// now, in now's location.
func Aggregate(books []model.Book, users []model.User, loans []model.Loan, now time.Time) model.Statistics {
	var st model.Statistics
	for _, b := range books {
		st.TotalBooks += b.Total
		st.AvailableBooks += b.Available
	}
	for _, u := range users {
		if u.Role == model.RoleMember {
			st.TotalMembers++
		}
	}

	year, month, _ := now.Date()
	for _, l := range loans {
		switch l.Status {
		case model.StatusApproved:
			st.ActiveLoans++
		case model.StatusPending:
			st.PendingLoans++
		case model.StatusReturned:
			if l.ReturnedAt == nil {
				continue
			}
			y, m, _ := l.ReturnedAt.In(now.Location()).Date()
			if y == year && m == month {
				st.FinesThisMonth += l.Fine
			}
		}
	}
	return st
}
