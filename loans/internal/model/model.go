package model

import (
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusReturned Status = "returned"
)

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusReturned
}

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type Book struct {
	ID         string    `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	Author     string    `json:"author" db:"author"`
	Publisher  string    `json:"publisher" db:"publisher"`
	Year       int       `json:"year" db:"published_year"`
	ISBN       string    `json:"isbn" db:"isbn"`
	CategoryID string    `json:"categoryId" db:"category_id"`
	Total      int       `json:"total" db:"total"`
	Available  int       `json:"available" db:"available"`
	Synopsis   string    `json:"synopsis" db:"synopsis"`
	CoverURL   string    `json:"coverUrl" db:"cover_url"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type Loan struct {
	ID          string     `json:"id" db:"id"`
	MemberID    string     `json:"memberId" db:"member_id"`
	BookID      string     `json:"bookId" db:"book_id"`
	RequestedAt time.Time  `json:"requestedAt" db:"requested_at"`
	DueAt       *time.Time `json:"dueAt" db:"due_at"`
	ReturnedAt  *time.Time `json:"returnedAt" db:"returned_at"`
	Status      Status     `json:"status" db:"status"`
	Extended    bool       `json:"extended" db:"extended"`
	Fine        int        `json:"fine" db:"fine"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	MemberNumber string    `json:"memberNumber" db:"member_number"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

type UserSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	MemberNumber string `json:"memberNumber"`
}

type BookSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	CoverURL string `json:"coverUrl"`
}

// LoanDetails is a loan with the borrower and the book attached. Either is nil
// when the referenced record no longer exists.
type LoanDetails struct {
	Loan
	User *UserSummary `json:"user"`
	Book *BookSummary `json:"book"`
}

// Snapshot holds whole collections for read side projections.
type Snapshot struct {
	Books []Book `json:"books"`
	Users []User `json:"users"`
	Loans []Loan `json:"loans"`
}

type Statistics struct {
	TotalBooks     int `json:"totalBooks"`
	AvailableBooks int `json:"availableBooks"`
	TotalMembers   int `json:"totalMembers"`
	ActiveLoans    int `json:"activeLoans"`
	PendingLoans   int `json:"pendingLoans"`
	FinesThisMonth int `json:"totalFinesThisMonth"`
}

type CreateLoanRequest struct {
	BookID string `json:"bookId" validate:"required"`
}

type LoanActionRequest struct {
	LoanID string `json:"loanId" validate:"required"`
}

type LoanResponse struct {
	Message string `json:"message"`
	Loan    Loan   `json:"loan"`
}

type ReturnLoanResponse struct {
	Message string `json:"message"`
	Fine    int    `json:"fine"`
}

type ExtendLoanResponse struct {
	Message string    `json:"message"`
	DueAt   time.Time `json:"dueAt"`
}

type ListLoans struct {
	Items []LoanDetails `json:"items"`
}
