package kafka

import "time"

type LoanEventType string

const (
	LoanRequested LoanEventType = "REQUESTED"
	LoanApproved  LoanEventType = "APPROVED"
	LoanRejected  LoanEventType = "REJECTED"
	LoanReturned  LoanEventType = "RETURNED"
	LoanExtended  LoanEventType = "EXTENDED"
)

// LoanEvent is published to LoanTopic after a loan changes state.
type LoanEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	EventType LoanEventType `json:"eventType"`
	LoanID    string        `json:"loanId"`
	MemberID  string        `json:"memberId"`
	BookID    string        `json:"bookId"`
	Status    string        `json:"status"`
	DueAt     *time.Time    `json:"dueAt,omitempty"`
	Fine      int           `json:"fine"`
}

// BookStockEvent is published by catalog management when the total copies of
// a book are edited.
type BookStockEvent struct {
	BookID string `json:"bookId"`
	Total  int    `json:"total"`
}
