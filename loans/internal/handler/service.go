package handler

import (
	"context"
	"time"

	"github.com/Astemirdum/library-loans/loans/internal/model"
	"github.com/Astemirdum/library-loans/loans/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

var _ LoanService = (*service.Service)(nil)

type LoanService interface {
	RequestLoan(ctx context.Context, memberID, bookID string, now time.Time) (model.Loan, error)
	ApproveLoan(ctx context.Context, loanID string, now time.Time) (model.Loan, error)
	RejectLoan(ctx context.Context, loanID string) (model.Loan, error)
	ReturnLoan(ctx context.Context, loanID string, now time.Time) (model.Loan, error)
	ExtendLoan(ctx context.Context, loanID, memberID string, now time.Time) (model.Loan, error)
	GetLoan(ctx context.Context, loanID string) (model.Loan, error)
	ListLoans(ctx context.Context, memberID string) ([]model.LoanDetails, error)
	AdjustStock(ctx context.Context, bookID string, total int) (model.Book, error)
	DeleteBook(ctx context.Context, bookID string) error
	GetStatistics(ctx context.Context, now time.Time) (model.Statistics, error)
}

type Enqueuer interface {
	Enqueue(topic string, v any) error
}
