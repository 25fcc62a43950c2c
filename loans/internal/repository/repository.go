package repository

import (
	"context"

	"github.com/Astemirdum/library-loans/loans/internal/model"
)

// Repository is the store behind the loan service. Every mutation goes through
// InTx: fn sees a consistent view and its writes become visible all together
// when it returns nil, or not at all.
type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// ListLoans returns loans newest first, only memberID's when it is not empty.
	ListLoans(ctx context.Context, memberID string) ([]model.LoanDetails, error)
	Snapshot(ctx context.Context) (model.Snapshot, error)
}

// Tx reads lock the returned rows until the transaction ends.
type Tx interface {
	GetBook(ctx context.Context, bookID string) (model.Book, error)
	SaveBookStock(ctx context.Context, book model.Book) error
	DeleteBook(ctx context.Context, bookID string) error

	GetLoan(ctx context.Context, loanID string) (model.Loan, error)
	CreateLoan(ctx context.Context, loan model.Loan) error
	UpdateLoan(ctx context.Context, loan model.Loan) error
	CountMemberLoans(ctx context.Context, memberID string, status model.Status) (int, error)
	HasBookLoans(ctx context.Context, bookID string, status model.Status) (bool, error)
}
