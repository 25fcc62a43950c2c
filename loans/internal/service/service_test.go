package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-loans/loans/internal/errs"
	"github.com/Astemirdum/library-loans/loans/internal/model"
	"github.com/Astemirdum/library-loans/loans/internal/repository"
	"github.com/Astemirdum/library-loans/loans/internal/service"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T, books ...model.Book) (*service.Service, *repository.Memory) {
	t.Helper()
	repo := repository.NewMemory()
	require.NoError(t, repo.Seed(model.Snapshot{Books: books}))
	return service.NewService(repo, service.DefaultPolicy()), repo
}

func bookOf(t *testing.T, repo *repository.Memory, id string) model.Book {
	t.Helper()
	snap, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	for _, b := range snap.Books {
		if b.ID == id {
			return b
		}
	}
	t.Fatalf("book %s not found", id)
	return model.Book{}
}

func book(id string, total, available int) model.Book {
	return model.Book{ID: id, Title: "title " + id, Total: total, Available: available}
}

// borrow requests and approves a loan of bookID for memberID.
func borrow(t *testing.T, svc *service.Service, memberID, bookID string, now time.Time) model.Loan {
	t.Helper()
	ctx := context.Background()
	loan, err := svc.RequestLoan(ctx, memberID, bookID, now)
	require.NoError(t, err)
	loan, err = svc.ApproveLoan(ctx, loan.ID, now)
	require.NoError(t, err)
	return loan
}

func TestService_RequestLoan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newService(t, book("b1", 2, 2), book("empty", 1, 0))

	loan, err := svc.RequestLoan(ctx, "m1", "b1", t0)
	require.NoError(t, err)
	require.NotEmpty(t, loan.ID)
	require.Equal(t, model.StatusPending, loan.Status)
	require.Equal(t, "m1", loan.MemberID)
	require.Equal(t, "b1", loan.BookID)
	require.Equal(t, t0, loan.RequestedAt)
	require.Nil(t, loan.DueAt)
	require.Nil(t, loan.ReturnedAt)
	require.False(t, loan.Extended)
	require.Zero(t, loan.Fine)
	require.Equal(t, 2, bookOf(t, repo, "b1").Available, "request must not reserve stock")

	_, err = svc.RequestLoan(ctx, "m1", "missing", t0)
	require.ErrorIs(t, err, errs.ErrBookNotFound)
	require.Equal(t, errs.KindNotFound, errs.KindOf(err))

	_, err = svc.RequestLoan(ctx, "m1", "empty", t0)
	require.ErrorIs(t, err, errs.ErrBookUnavailable)
	require.Equal(t, errs.KindResourceExhausted, errs.KindOf(err))
}

func TestService_Quota(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newService(t, book("b1", 1, 1), book("b2", 1, 1), book("b3", 1, 1), book("b4", 1, 1), book("b5", 1, 1))

	first := borrow(t, svc, "m1", "b1", t0)
	borrow(t, svc, "m1", "b2", t0)
	borrow(t, svc, "m1", "b3", t0)

	_, err := svc.RequestLoan(ctx, "m1", "b4", t0)
	require.ErrorIs(t, err, errs.ErrQuotaExceeded)
	require.Equal(t, errs.KindResourceExhausted, errs.KindOf(err))

	// Other members are unaffected.
	_, err = svc.RequestLoan(ctx, "m2", "b4", t0)
	require.NoError(t, err)

	_, err = svc.ReturnLoan(ctx, first.ID, t0.Add(time.Hour))
	require.NoError(t, err)

	pending, err := svc.RequestLoan(ctx, "m1", "b4", t0)
	require.NoError(t, err)

	// Pending and rejected loans never count toward the quota.
	_, err = svc.RejectLoan(ctx, pending.ID)
	require.NoError(t, err)
	_, err = svc.RequestLoan(ctx, "m1", "b5", t0)
	require.NoError(t, err)
}

func TestService_ApproveLoan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newService(t, book("b1", 1, 1))

	loan, err := svc.RequestLoan(ctx, "m1", "b1", t0)
	require.NoError(t, err)

	approved, err := svc.ApproveLoan(ctx, loan.ID, t0)
	require.NoError(t, err)
	require.Equal(t, model.StatusApproved, approved.Status)
	require.NotNil(t, approved.DueAt)
	require.Equal(t, t0.AddDate(0, 0, 7), *approved.DueAt)
	require.Equal(t, 0, bookOf(t, repo, "b1").Available)

	_, err = svc.ApproveLoan(ctx, loan.ID, t0)
	require.ErrorIs(t, err, errs.ErrLoanNotPending)
	require.Equal(t, errs.KindInvalidState, errs.KindOf(err))
	require.Equal(t, 0, bookOf(t, repo, "b1").Available, "stock is decremented exactly once")

	_, err = svc.ApproveLoan(ctx, "missing", t0)
	require.ErrorIs(t, err, errs.ErrLoanNotFound)
}

func TestService_ApproveLoan_BookUnavailable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newService(t, book("b1", 1, 1))

	a, err := svc.RequestLoan(ctx, "m1", "b1", t0)
	require.NoError(t, err)
	b, err := svc.RequestLoan(ctx, "m2", "b1", t0)
	require.NoError(t, err)

	_, err = svc.ApproveLoan(ctx, a.ID, t0)
	require.NoError(t, err)

	_, err = svc.ApproveLoan(ctx, b.ID, t0)
	require.ErrorIs(t, err, errs.ErrBookUnavailable)

	got, err := svc.GetLoan(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, got.Status, "failed approval leaves the loan untouched")
	require.Nil(t, got.DueAt)
	require.Equal(t, 0, bookOf(t, repo, "b1").Available)
}

func TestService_RejectLoan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newService(t, book("b1", 1, 1))

	loan, err := svc.RequestLoan(ctx, "m1", "b1", t0)
	require.NoError(t, err)

	rejected, err := svc.RejectLoan(ctx, loan.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusRejected, rejected.Status)
	require.Equal(t, 1, bookOf(t, repo, "b1").Available)

	_, err = svc.RejectLoan(ctx, loan.ID)
	require.ErrorIs(t, err, errs.ErrLoanNotPending)
	_, err = svc.ApproveLoan(ctx, loan.ID, t0)
	require.ErrorIs(t, err, errs.ErrLoanNotPending)
	_, err = svc.ReturnLoan(ctx, loan.ID, t0)
	require.ErrorIs(t, err, errs.ErrLoanNotApproved)
	_, err = svc.RejectLoan(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrLoanNotFound)
}

func TestService_ReturnLoan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newService(t, book("b1", 2, 2))

	pending, err := svc.RequestLoan(ctx, "m1", "b1", t0)
	require.NoError(t, err)
	_, err = svc.ReturnLoan(ctx, pending.ID, t0)
	require.ErrorIs(t, err, errs.ErrLoanNotApproved)

	loan, err := svc.ApproveLoan(ctx, pending.ID, t0)
	require.NoError(t, err)
	require.Equal(t, 1, bookOf(t, repo, "b1").Available)

	returnedAt := loan.DueAt.Add(25 * time.Hour)
	returned, err := svc.ReturnLoan(ctx, loan.ID, returnedAt)
	require.NoError(t, err)
	require.Equal(t, model.StatusReturned, returned.Status)
	require.Equal(t, 2000, returned.Fine)
	require.NotNil(t, returned.ReturnedAt)
	require.Equal(t, returnedAt, *returned.ReturnedAt)
	require.Equal(t, 2, bookOf(t, repo, "b1").Available)

	_, err = svc.ReturnLoan(ctx, loan.ID, returnedAt)
	require.ErrorIs(t, err, errs.ErrLoanNotApproved)
	_, err = svc.ReturnLoan(ctx, "missing", returnedAt)
	require.ErrorIs(t, err, errs.ErrLoanNotFound)
}

func TestService_ReturnLoan_ClampsToTotal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newService(t, book("b1", 2, 2))

	loan := borrow(t, svc, "m1", "b1", t0)
	// Catalog lowers the total while the copy is out: 2/1 -> 1/0.
	adjusted, err := svc.AdjustStock(ctx, "b1", 1)
	require.NoError(t, err)
	require.Equal(t, 0, adjusted.Available)

	_, err = svc.ReturnLoan(ctx, loan.ID, t0)
	require.NoError(t, err)
	require.Equal(t, model.Book{ID: "b1", Title: "title b1", Total: 1, Available: 1}, bookOf(t, repo, "b1"))

	// The total was lowered further than the copies out, the return cannot exceed it.
	loan = borrow(t, svc, "m1", "b1", t0)
	_, err = svc.AdjustStock(ctx, "b1", 0)
	require.NoError(t, err)
	_, err = svc.ReturnLoan(ctx, loan.ID, t0)
	require.NoError(t, err)
	require.Equal(t, 0, bookOf(t, repo, "b1").Available)
}

func TestService_ReturnLoan_DeletedBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newService(t, book("b1", 1, 1))
	loan := borrow(t, svc, "m1", "b1", t0)

	// Simulates a book removed behind the service's back.
	require.NoError(t, repo.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.DeleteBook(ctx, "b1")
	}))

	returned, err := svc.ReturnLoan(ctx, loan.ID, t0)
	require.NoError(t, err)
	require.Equal(t, model.StatusReturned, returned.Status)
}

func TestService_ExtendLoan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newService(t, book("b1", 3, 3))

	loan := borrow(t, svc, "m1", "b1", t0)
	due := *loan.DueAt

	extended, err := svc.ExtendLoan(ctx, loan.ID, "m1", t0.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, extended.Extended)
	require.Equal(t, due.AddDate(0, 0, 7), *extended.DueAt)

	// Second extension fails whatever the timing.
	_, err = svc.ExtendLoan(ctx, loan.ID, "m1", t0.Add(time.Hour))
	require.ErrorIs(t, err, errs.ErrAlreadyExtended)
	require.Equal(t, errs.KindPolicyViolation, errs.KindOf(err))
	_, err = svc.ExtendLoan(ctx, loan.ID, "m1", t0.AddDate(0, 1, 0))
	require.ErrorIs(t, err, errs.ErrAlreadyExtended)

	got, err := svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	require.Equal(t, due.AddDate(0, 0, 7), *got.DueAt)
}

func TestService_ExtendLoan_Failures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newService(t, book("b1", 5, 5))

	owned := borrow(t, svc, "m1", "b1", t0)
	pending, err := svc.RequestLoan(ctx, "m1", "b1", t0)
	require.NoError(t, err)
	overdue := borrow(t, svc, "m1", "b1", t0)
	onTheDot := borrow(t, svc, "m1", "b1", t0.Add(-time.Hour))

	tests := []struct {
		name     string
		loanID   string
		memberID string
		now      time.Time
		wantErr  error
		wantKind errs.Kind
	}{
		{name: "not found", loanID: "missing", memberID: "m1", now: t0, wantErr: errs.ErrLoanNotFound, wantKind: errs.KindNotFound},
		{name: "not owner", loanID: owned.ID, memberID: "m2", now: t0, wantErr: errs.ErrNotOwner, wantKind: errs.KindForbidden},
		{name: "not approved", loanID: pending.ID, memberID: "m1", now: t0, wantErr: errs.ErrLoanNotApproved, wantKind: errs.KindInvalidState},
		{name: "overdue", loanID: overdue.ID, memberID: "m1", now: overdue.DueAt.Add(time.Nanosecond), wantErr: errs.ErrExtensionWindowClosed, wantKind: errs.KindPolicyViolation},
		{name: "exactly at due", loanID: onTheDot.ID, memberID: "m1", now: *onTheDot.DueAt},
	}
	for _, tt := range tests {
		_, err := svc.ExtendLoan(ctx, tt.loanID, tt.memberID, tt.now)
		if tt.wantErr == nil {
			require.NoError(t, err, tt.name)
			continue
		}
		require.ErrorIs(t, err, tt.wantErr, tt.name)
		require.Equal(t, tt.wantKind, errs.KindOf(err), tt.name)
	}
}

func TestService_ExtensionsDisabled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repository.NewMemory()
	require.NoError(t, repo.Seed(model.Snapshot{Books: []model.Book{book("b1", 1, 1)}}))
	policy := service.DefaultPolicy()
	policy.MaxExtensions = 0
	svc := service.NewService(repo, policy)

	loan := borrow(t, svc, "m1", "b1", t0)
	_, err := svc.ExtendLoan(ctx, loan.ID, "m1", t0)
	require.ErrorIs(t, err, errs.ErrAlreadyExtended)
}

func TestService_Scenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newService(t, book("b1", 1, 1))

	a, err := svc.RequestLoan(ctx, "memberA", "b1", t0)
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, a.Status)
	require.Equal(t, 1, bookOf(t, repo, "b1").Available)

	a, err = svc.ApproveLoan(ctx, a.ID, t0)
	require.NoError(t, err)
	require.Equal(t, 0, bookOf(t, repo, "b1").Available)
	require.Equal(t, t0.Add(7*24*time.Hour), *a.DueAt)

	_, err = svc.RequestLoan(ctx, "memberB", "b1", t0.Add(time.Hour))
	require.ErrorIs(t, err, errs.ErrBookUnavailable)

	// Member B cannot extend A's loan even though it is otherwise eligible.
	_, err = svc.ExtendLoan(ctx, a.ID, "memberB", t0.Add(time.Hour))
	require.ErrorIs(t, err, errs.ErrNotOwner)

	a, err = svc.ReturnLoan(ctx, a.ID, t0.Add(10*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 3*1000, a.Fine)
	require.Equal(t, 1, bookOf(t, repo, "b1").Available)
}

func TestService_ConcurrentApprovals(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo := newService(t, book("b1", 1, 1))

	const n = 8
	ids := make([]string, n)
	for i := range ids {
		loan, err := svc.RequestLoan(ctx, string(rune('a'+i)), "b1", t0)
		require.NoError(t, err)
		ids[i] = loan.ID
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for _, id := range ids {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApproveLoan(ctx, id, t0)
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			if !errors.Is(err, errs.ErrBookUnavailable) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, success)
	require.Equal(t, 0, bookOf(t, repo, "b1").Available)
}

func TestService_AdjustStock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name          string
		book          model.Book
		total         int
		wantAvailable int
		wantErr       error
	}{
		{name: "grow", book: book("b", 3, 1), total: 5, wantAvailable: 3},
		{name: "shrink", book: book("b", 3, 2), total: 2, wantAvailable: 1},
		{name: "shrink below zero", book: book("b", 3, 0), total: 1, wantAvailable: 0},
		{name: "to zero", book: book("b", 3, 3), total: 0, wantAvailable: 0},
		{name: "negative", book: book("b", 3, 3), total: -1, wantErr: errs.ErrInvalidStock},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, repo := newService(t, tt.book)
			got, err := svc.AdjustStock(ctx, "b", tt.total)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Equal(t, tt.book, bookOf(t, repo, "b"))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.total, got.Total)
			require.Equal(t, tt.wantAvailable, got.Available)
			require.Equal(t, got, bookOf(t, repo, "b"))
		})
	}

	svc, _ := newService(t)
	_, err := svc.AdjustStock(ctx, "missing", 1)
	require.ErrorIs(t, err, errs.ErrBookNotFound)
}

func TestService_DeleteBook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newService(t, book("b1", 1, 1), book("b2", 1, 1))

	loan := borrow(t, svc, "m1", "b1", t0)
	err := svc.DeleteBook(ctx, "b1")
	require.ErrorIs(t, err, errs.ErrBookHasActiveLoans)
	require.Equal(t, errs.KindInvalidState, errs.KindOf(err))

	_, err = svc.ReturnLoan(ctx, loan.ID, t0)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteBook(ctx, "b1"))

	// A pending request does not block deletion.
	_, err = svc.RequestLoan(ctx, "m1", "b2", t0)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteBook(ctx, "b2"))

	require.ErrorIs(t, svc.DeleteBook(ctx, "b1"), errs.ErrBookNotFound)

	// History survives the book.
	loans, err := svc.ListLoans(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, loans, 2)
	for _, l := range loans {
		require.Nil(t, l.Book)
	}
}
