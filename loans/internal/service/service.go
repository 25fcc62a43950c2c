package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-loans/loans/internal/errs"
	"github.com/Astemirdum/library-loans/loans/internal/model"
	"github.com/Astemirdum/library-loans/loans/internal/repository"
)

// Policy holds the loan business rules.
type Policy struct {
	MaxActiveLoans   int
	LoanDurationDays int
	FinePerDay       int
	// MaxExtensions above one behaves as one, a loan keeps a single extended flag.
	MaxExtensions int
}

func DefaultPolicy() Policy {
	return Policy{
		MaxActiveLoans:   3,
		LoanDurationDays: 7,
		FinePerDay:       1000,
		MaxExtensions:    1,
	}
}

// Service runs the loan lifecycle:
//
//	pending --approve--> approved --return--> returned
//	pending --reject---> rejected
//
// Each operation is one repository transaction, a failed operation leaves
// loans and book stock untouched.
type Service struct {
	repo   repository.Repository
	policy Policy
	newID  func() string
}

func NewService(repo repository.Repository, policy Policy) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
		newID:  uuid.NewString,
	}
}

func (s *Service) Policy() Policy {
	return s.policy
}

// RequestLoan files a pending loan. Stock is reserved only on approval.
func (s *Service) RequestLoan(ctx context.Context, memberID, bookID string, now time.Time) (model.Loan, error) {
	var loan model.Loan
	err := s.repo.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		book, err := tx.GetBook(ctx, bookID)
		if err != nil {
			return err
		}
		if book.Available < 1 {
			return errs.ErrBookUnavailable
		}
		active, err := tx.CountMemberLoans(ctx, memberID, model.StatusApproved)
		if err != nil {
			return err
		}
		if active >= s.policy.MaxActiveLoans {
			return errs.ErrQuotaExceeded
		}

		loan = model.Loan{
			ID:          s.newID(),
			MemberID:    memberID,
			BookID:      bookID,
			RequestedAt: now,
			Status:      model.StatusPending,
			CreatedAt:   now,
		}
		return tx.CreateLoan(ctx, loan)
	})
	if err != nil {
		return model.Loan{}, err
	}
	return loan, nil
}

// ApproveLoan lends the book: the loan gets a due date and one copy leaves the shelf.
func (s *Service) ApproveLoan(ctx context.Context, loanID string, now time.Time) (model.Loan, error) {
	var loan model.Loan
	err := s.repo.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if loan, err = tx.GetLoan(ctx, loanID); err != nil {
			return err
		}
		if loan.Status != model.StatusPending {
			return errs.ErrLoanNotPending
		}
		book, err := tx.GetBook(ctx, loan.BookID)
		if err != nil {
			if errors.Is(err, errs.ErrBookNotFound) {
				return errs.ErrBookUnavailable
			}
			return err
		}
		if book.Available < 1 {
			return errs.ErrBookUnavailable
		}

		due := now.AddDate(0, 0, s.policy.LoanDurationDays)
		loan.Status = model.StatusApproved
		loan.DueAt = &due
		book.Available--

		if err := tx.UpdateLoan(ctx, loan); err != nil {
			return err
		}
		return tx.SaveBookStock(ctx, book)
	})
	if err != nil {
		return model.Loan{}, err
	}
	return loan, nil
}

func (s *Service) RejectLoan(ctx context.Context, loanID string) (model.Loan, error) {
	var loan model.Loan
	err := s.repo.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if loan, err = tx.GetLoan(ctx, loanID); err != nil {
			return err
		}
		if loan.Status != model.StatusPending {
			return errs.ErrLoanNotPending
		}
		loan.Status = model.StatusRejected
		return tx.UpdateLoan(ctx, loan)
	})
	if err != nil {
		return model.Loan{}, err
	}
	return loan, nil
}

// ReturnLoan closes an approved loan, charges the fine and puts the copy back.
// The copy count never exceeds the book total, even if the total was lowered
// while the loan was out.
func (s *Service) ReturnLoan(ctx context.Context, loanID string, now time.Time) (model.Loan, error) {
	var loan model.Loan
	err := s.repo.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if loan, err = tx.GetLoan(ctx, loanID); err != nil {
			return err
		}
		if loan.Status != model.StatusApproved {
			return errs.ErrLoanNotApproved
		}

		if loan.DueAt != nil {
			loan.Fine = Fine(*loan.DueAt, now, s.policy.FinePerDay)
		}
		returned := now
		loan.Status = model.StatusReturned
		loan.ReturnedAt = &returned
		if err := tx.UpdateLoan(ctx, loan); err != nil {
			return err
		}

		book, err := tx.GetBook(ctx, loan.BookID)
		if err != nil {
			if errors.Is(err, errs.ErrBookNotFound) {
				return nil
			}
			return err
		}
		book.Available = min(book.Available+1, book.Total)
		return tx.SaveBookStock(ctx, book)
	})
	if err != nil {
		return model.Loan{}, err
	}
	return loan, nil
}

// ExtendLoan pushes the due date of memberID's own loan once, while it is not overdue.
func (s *Service) ExtendLoan(ctx context.Context, loanID, memberID string, now time.Time) (model.Loan, error) {
	var loan model.Loan
	err := s.repo.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if loan, err = tx.GetLoan(ctx, loanID); err != nil {
			return err
		}
		if loan.MemberID != memberID {
			return errs.ErrNotOwner
		}
		if loan.Status != model.StatusApproved || loan.DueAt == nil {
			return errs.ErrLoanNotApproved
		}
		if loan.Extended || s.policy.MaxExtensions < 1 {
			return errs.ErrAlreadyExtended
		}
		if now.After(*loan.DueAt) {
			return errs.ErrExtensionWindowClosed
		}

		due := loan.DueAt.AddDate(0, 0, s.policy.LoanDurationDays)
		loan.DueAt = &due
		loan.Extended = true
		return tx.UpdateLoan(ctx, loan)
	})
	if err != nil {
		return model.Loan{}, err
	}
	return loan, nil
}

func (s *Service) GetLoan(ctx context.Context, loanID string) (model.Loan, error) {
	var loan model.Loan
	err := s.repo.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		loan, err = tx.GetLoan(ctx, loanID)
		return err
	})
	return loan, err
}

// ListLoans returns every loan when memberID is empty.
func (s *Service) ListLoans(ctx context.Context, memberID string) ([]model.LoanDetails, error) {
	return s.repo.ListLoans(ctx, memberID)
}

// AdjustStock applies a new total to a book, shifting the available copies by
// the same amount and keeping them within [0, total].
func (s *Service) AdjustStock(ctx context.Context, bookID string, total int) (model.Book, error) {
	if total < 0 {
		return model.Book{}, errs.ErrInvalidStock
	}
	var book model.Book
	err := s.repo.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if book, err = tx.GetBook(ctx, bookID); err != nil {
			return err
		}
		available := book.Available + total - book.Total
		book.Total = total
		book.Available = max(0, min(available, total))
		return tx.SaveBookStock(ctx, book)
	})
	if err != nil {
		return model.Book{}, err
	}
	return book, nil
}

// DeleteBook removes a book nobody currently holds. Loan history keeps its id.
func (s *Service) DeleteBook(ctx context.Context, bookID string) error {
	return s.repo.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetBook(ctx, bookID); err != nil {
			return err
		}
		borrowed, err := tx.HasBookLoans(ctx, bookID, model.StatusApproved)
		if err != nil {
			return err
		}
		if borrowed {
			return errs.ErrBookHasActiveLoans
		}
		return tx.DeleteBook(ctx, bookID)
	})
}

func (s *Service) GetStatistics(ctx context.Context, now time.Time) (model.Statistics, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return model.Statistics{}, err
	}
	return Aggregate(snap.Books, snap.Users, snap.Loans, now), nil
}
