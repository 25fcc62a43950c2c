package repository

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/Astemirdum/library-loans/loans/internal/errs"
	"github.com/Astemirdum/library-loans/loans/internal/model"
)

// Memory is a single process store. Transactions are serialized by one mutex
// and run against a copy of the books and loans that replaces the live maps
// only when the callback succeeds.
type Memory struct {
	mu    sync.Mutex
	books map[string]model.Book
	users map[string]model.User
	loans map[string]model.Loan
}

func NewMemory() *Memory {
	return &Memory{
		books: make(map[string]model.Book),
		users: make(map[string]model.User),
		loans: make(map[string]model.Loan),
	}
}

// Seed adds records, replacing any with the same id. Nothing is added when
// any book is out of bounds.
func (m *Memory) Seed(snap model.Snapshot) error {
	for _, b := range snap.Books {
		if b.Available < 0 || b.Available > b.Total {
			return errors.Errorf("book %s: available %d out of [0, %d]", b.ID, b.Available, b.Total)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range snap.Books {
		m.books[b.ID] = b
	}
	for _, u := range snap.Users {
		m.users[u.ID] = u
	}
	for _, l := range snap.Loans {
		m.loans[l.ID] = l
	}
	return nil
}

func (m *Memory) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{
		books: maps.Clone(m.books),
		loans: maps.Clone(m.loans),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.books, m.loans = tx.books, tx.loans
	return nil
}

func (m *Memory) ListLoans(_ context.Context, memberID string) ([]model.LoanDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]model.LoanDetails, 0, len(m.loans))
	for _, l := range m.loans {
		if memberID != "" && l.MemberID != memberID {
			continue
		}
		d := model.LoanDetails{Loan: l}
		if u, ok := m.users[l.MemberID]; ok {
			d.User = &model.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, MemberNumber: u.MemberNumber}
		}
		if b, ok := m.books[l.BookID]; ok {
			d.Book = &model.BookSummary{ID: b.ID, Title: b.Title, Author: b.Author, CoverURL: b.CoverURL}
		}
		items = append(items, d)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].RequestedAt.Equal(items[j].RequestedAt) {
			return items[i].RequestedAt.After(items[j].RequestedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (m *Memory) Snapshot(_ context.Context) (model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := model.Snapshot{
		Books: make([]model.Book, 0, len(m.books)),
		Users: make([]model.User, 0, len(m.users)),
		Loans: make([]model.Loan, 0, len(m.loans)),
	}
	for _, b := range m.books {
		snap.Books = append(snap.Books, b)
	}
	for _, u := range m.users {
		snap.Users = append(snap.Users, u)
	}
	for _, l := range m.loans {
		snap.Loans = append(snap.Loans, l)
	}
	return snap, nil
}

type memTx struct {
	books map[string]model.Book
	loans map[string]model.Loan
}

func (t *memTx) GetBook(_ context.Context, bookID string) (model.Book, error) {
	b, ok := t.books[bookID]
	if !ok {
		return model.Book{}, errs.ErrBookNotFound
	}
	return b, nil
}

func (t *memTx) SaveBookStock(_ context.Context, book model.Book) error {
	b, ok := t.books[book.ID]
	if !ok {
		return errs.ErrBookNotFound
	}
	if book.Available < 0 || book.Available > book.Total {
		return errs.ErrBookUnavailable
	}
	b.Total, b.Available = book.Total, book.Available
	t.books[book.ID] = b
	return nil
}

func (t *memTx) DeleteBook(_ context.Context, bookID string) error {
	if _, ok := t.books[bookID]; !ok {
		return errs.ErrBookNotFound
	}
	delete(t.books, bookID)
	return nil
}

func (t *memTx) GetLoan(_ context.Context, loanID string) (model.Loan, error) {
	l, ok := t.loans[loanID]
	if !ok {
		return model.Loan{}, errs.ErrLoanNotFound
	}
	return l, nil
}

func (t *memTx) CreateLoan(_ context.Context, loan model.Loan) error {
	if _, ok := t.loans[loan.ID]; ok {
		return errors.Errorf("duplicate loan %s", loan.ID)
	}
	t.loans[loan.ID] = loan
	return nil
}

func (t *memTx) UpdateLoan(_ context.Context, loan model.Loan) error {
	if _, ok := t.loans[loan.ID]; !ok {
		return errs.ErrLoanNotFound
	}
	t.loans[loan.ID] = loan
	return nil
}

func (t *memTx) CountMemberLoans(_ context.Context, memberID string, status model.Status) (int, error) {
	n := 0
	for _, l := range t.loans {
		if l.MemberID == memberID && l.Status == status {
			n++
		}
	}
	return n, nil
}

func (t *memTx) HasBookLoans(_ context.Context, bookID string, status model.Status) (bool, error) {
	for _, l := range t.loans {
		if l.BookID == bookID && l.Status == status {
			return true, nil
		}
	}
	return false, nil
}
