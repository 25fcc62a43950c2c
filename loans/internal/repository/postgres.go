package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-loans/loans/internal/errs"
	"github.com/Astemirdum/library-loans/loans/internal/model"
)

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName = `books`
	loansTableName = `loans`
	usersTableName = `users`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var (
	bookColumns = []string{"id", "title", "author", "publisher", "published_year", "isbn", "category_id",
		"total", "available", "synopsis", "cover_url", "created_at"}
	loanColumns = []string{"id", "member_id", "book_id", "requested_at", "due_at", "returned_at",
		"status", "extended", "fine", "created_at"}
	userColumns = []string{"id", "name", "email", "member_number", "role", "created_at"}
)

func (r *repository) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() {
		if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.log.Warn("rollback", zap.Error(err))
		}
	}()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgError(errors.Wrap(err, "commit"))
	}
	return nil
}

// mapPgError turns constraint violations into the business failures they guard.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.CheckViolation:
		if pgErr.ConstraintName == "books_stock_check" {
			return errs.ErrBookUnavailable
		}
	case pgerrcode.UniqueViolation:
		return errors.Wrapf(err, "duplicate %s", pgErr.ConstraintName)
	}
	return err
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) GetBook(ctx context.Context, bookID string) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": bookID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, errors.Wrap(err, "GetBook")
	}
	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		return model.Book{}, errors.Wrap(err, "GetBook")
	}
	return book, nil
}

func (t *pgTx) SaveBookStock(ctx context.Context, book model.Book) error {
	query, args, err := qb.Update(booksTableName).
		Set("total", book.Total).
		Set("available", book.Available).
		Where(sq.Eq{"id": book.ID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(errors.Wrap(err, "SaveBookStock"))
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrBookNotFound
	}
	return nil
}

func (t *pgTx) DeleteBook(ctx context.Context, bookID string) error {
	query, args, err := qb.Delete(booksTableName).
		Where(sq.Eq{"id": bookID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "DeleteBook")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrBookNotFound
	}
	return nil
}

func (t *pgTx) GetLoan(ctx context.Context, loanID string) (model.Loan, error) {
	query, args, err := qb.Select(loanColumns...).
		From(loansTableName).
		Where(sq.Eq{"id": loanID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return model.Loan{}, errors.Wrap(err, "GetLoan")
	}
	loan, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Loan])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Loan{}, errs.ErrLoanNotFound
		}
		return model.Loan{}, errors.Wrap(err, "GetLoan")
	}
	return loan, nil
}

func (t *pgTx) CreateLoan(ctx context.Context, loan model.Loan) error {
	query, args, err := qb.Insert(loansTableName).
		Columns(loanColumns...).
		Values(loan.ID, loan.MemberID, loan.BookID, loan.RequestedAt, loan.DueAt, loan.ReturnedAt,
			string(loan.Status), loan.Extended, loan.Fine, loan.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, query, args...); err != nil {
		return mapPgError(errors.Wrap(err, "CreateLoan"))
	}
	return nil
}

func (t *pgTx) UpdateLoan(ctx context.Context, loan model.Loan) error {
	query, args, err := qb.Update(loansTableName).
		SetMap(map[string]interface{}{
			"due_at":      loan.DueAt,
			"returned_at": loan.ReturnedAt,
			"status":      string(loan.Status),
			"extended":    loan.Extended,
			"fine":        loan.Fine,
		}).
		Where(sq.Eq{"id": loan.ID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(errors.Wrap(err, "UpdateLoan"))
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrLoanNotFound
	}
	return nil
}

func (t *pgTx) CountMemberLoans(ctx context.Context, memberID string, status model.Status) (int, error) {
	query, args, err := qb.Select("count(*)").
		From(loansTableName).
		Where(sq.Eq{"member_id": memberID, "status": string(status)}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := t.tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "CountMemberLoans")
	}
	return count, nil
}

func (t *pgTx) HasBookLoans(ctx context.Context, bookID string, status model.Status) (bool, error) {
	const q = `select exists(select 1 from loans where book_id = @book_id and status = @status)`
	args := pgx.NamedArgs{
		"book_id": bookID,
		"status":  string(status),
	}
	var exists bool
	if err := t.tx.QueryRow(ctx, q, args).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "HasBookLoans")
	}
	return exists, nil
}

type loanDetailsRow struct {
	model.Loan
	UserRef          *string `db:"user_ref"`
	UserName         *string `db:"user_name"`
	UserEmail        *string `db:"user_email"`
	UserMemberNumber *string `db:"user_member_number"`
	BookRef          *string `db:"book_ref"`
	BookTitle        *string `db:"book_title"`
	BookAuthor       *string `db:"book_author"`
	BookCoverURL     *string `db:"book_cover_url"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (row loanDetailsRow) details() model.LoanDetails {
	d := model.LoanDetails{Loan: row.Loan}
	if row.UserRef != nil {
		d.User = &model.UserSummary{
			ID:           *row.UserRef,
			Name:         deref(row.UserName),
			Email:        deref(row.UserEmail),
			MemberNumber: deref(row.UserMemberNumber),
		}
	}
	if row.BookRef != nil {
		d.Book = &model.BookSummary{
			ID:       *row.BookRef,
			Title:    deref(row.BookTitle),
			Author:   deref(row.BookAuthor),
			CoverURL: deref(row.BookCoverURL),
		}
	}
	return d
}

func (r *repository) ListLoans(ctx context.Context, memberID string) ([]model.LoanDetails, error) {
	columns := make([]string, 0, len(loanColumns)+8)
	for _, c := range loanColumns {
		columns = append(columns, "l."+c)
	}
	columns = append(columns,
		"u.id as user_ref", "u.name as user_name", "u.email as user_email", "u.member_number as user_member_number",
		"b.id as book_ref", "b.title as book_title", "b.author as book_author", "b.cover_url as book_cover_url",
	)
	q := qb.Select(columns...).
		From(loansTableName + " l").
		LeftJoin(fmt.Sprintf("%s u on u.id = l.member_id", usersTableName)).
		LeftJoin(fmt.Sprintf("%s b on b.id = l.book_id", booksTableName)).
		OrderBy("l.requested_at desc", "l.id")
	if memberID != "" {
		q = q.Where(sq.Eq{"l.member_id": memberID})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListLoans", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "ListLoans")
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[loanDetailsRow])
	if err != nil {
		return nil, errors.Wrap(err, "pgx.CollectRows")
	}
	loans := make([]model.LoanDetails, 0, len(items))
	for _, item := range items {
		loans = append(loans, item.details())
	}
	return loans, nil
}

// Snapshot reads all three tables in one read only transaction so the
// collections agree with each other.
func (r *repository) Snapshot(ctx context.Context) (model.Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return model.Snapshot{}, errors.Wrap(err, "begin")
	}
	defer func() {
		if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			r.log.Warn("rollback", zap.Error(err))
		}
	}()

	var snap model.Snapshot
	if snap.Books, err = collectAll[model.Book](ctx, tx, booksTableName, bookColumns); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Users, err = collectAll[model.User](ctx, tx, usersTableName, userColumns); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Loans, err = collectAll[model.Loan](ctx, tx, loansTableName, loanColumns); err != nil {
		return model.Snapshot{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return model.Snapshot{}, errors.Wrap(err, "commit")
	}
	return snap, nil
}

func collectAll[T any](ctx context.Context, tx pgx.Tx, table string, columns []string) ([]T, error) {
	query, args, err := qb.Select(columns...).From(table).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "select %s", table)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, errors.Wrapf(err, "pgx.CollectRows %s", table)
	}
	return items, nil
}
