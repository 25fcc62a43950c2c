package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-loans/loans/internal/model"
	_ "github.com/Astemirdum/library-loans/loans/swagger"
	"github.com/Astemirdum/library-loans/pkg/auth"
	"github.com/Astemirdum/library-loans/pkg/kafka"
	mw "github.com/Astemirdum/library-loans/pkg/middleware"
	"github.com/Astemirdum/library-loans/pkg/validate"
)

type Handler struct {
	loanSvc  LoanService
	enqueuer Enqueuer
	log      *zap.Logger
	now      func() time.Time
	jwtKey   []byte
}

type Option func(h *Handler)

// WithClock replaces time.Now as the source of operation timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// WithJWTKey switches authentication from gateway headers to HS256 bearer tokens.
func WithJWTKey(key []byte) Option {
	return func(h *Handler) {
		h.jwtKey = key
	}
}

func New(loanSvc LoanService, enqueuer Enqueuer, log *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		loanSvc:  loanSvc,
		enqueuer: enqueuer,
		log:      log.Named("handler"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", mw.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()

	authMW := mw.AuthContext
	if len(h.jwtKey) > 0 {
		authMW = mw.JwtAuthentication(h.jwtKey)
	}
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(mw.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		mw.NewRateLimiter(apiRPS),
		authMW,
	)
	admin := mw.RequireRole(auth.RoleAdmin)
	member := mw.RequireRole(auth.RoleMember)
	anyone := mw.RequireRole(auth.RoleAdmin, auth.RoleMember)

	api.POST("/loans", h.RequestLoan, member)
	api.POST("/loans/approve", h.ApproveLoan, admin)
	api.POST("/loans/reject", h.RejectLoan, admin)
	api.POST("/loans/return", h.ReturnLoan, admin)
	api.POST("/loans/extend", h.ExtendLoan, member)
	api.GET("/loans", h.ListLoans, anyone)
	api.GET("/loans/:loanId", h.GetLoan, anyone)
	api.GET("/stats", h.GetStatistics, admin)
	api.DELETE("/books/:bookId", h.DeleteBook, admin)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// RequestLoan godoc
// @Summary Request a loan
// @Tags loans
// @Accept json
// @Produce json
// @Param request body model.CreateLoanRequest true "book to borrow"
// @Success 201 {object} model.Loan
// @Failure 400 {object} echo.HTTPError
// @Failure 404 {object} echo.HTTPError
// @Router /loans [post]
func (h *Handler) RequestLoan(c echo.Context) error {
	var req model.CreateLoanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	loan, err := h.loanSvc.RequestLoan(ctx, auth.UserName(ctx), req.BookID, h.now())
	if err != nil {
		return toHTTPError(err)
	}
	h.publish(kafka.LoanRequested, loan)
	return c.JSON(http.StatusCreated, loan)
}

// ApproveLoan godoc
// @Summary Approve a pending loan
// @Tags loans
// @Accept json
// @Produce json
// @Param request body model.LoanActionRequest true "loan to approve"
// @Success 200 {object} model.LoanResponse
// @Failure 400 {object} echo.HTTPError
// @Failure 404 {object} echo.HTTPError
// @Router /loans/approve [post]
func (h *Handler) ApproveLoan(c echo.Context) error {
	loanID, err := bindLoanID(c)
	if err != nil {
		return err
	}
	loan, err := h.loanSvc.ApproveLoan(c.Request().Context(), loanID, h.now())
	if err != nil {
		return toHTTPError(err)
	}
	h.publish(kafka.LoanApproved, loan)
	return c.JSON(http.StatusOK, model.LoanResponse{Message: "Loan approved", Loan: loan})
}

// RejectLoan godoc
// @Summary Reject a pending loan
// @Tags loans
// @Accept json
// @Produce json
// @Param request body model.LoanActionRequest true "loan to reject"
// @Success 200 {object} model.LoanResponse
// @Failure 400 {object} echo.HTTPError
// @Failure 404 {object} echo.HTTPError
// @Router /loans/reject [post]
func (h *Handler) RejectLoan(c echo.Context) error {
	loanID, err := bindLoanID(c)
	if err != nil {
		return err
	}
	loan, err := h.loanSvc.RejectLoan(c.Request().Context(), loanID)
	if err != nil {
		return toHTTPError(err)
	}
	h.publish(kafka.LoanRejected, loan)
	return c.JSON(http.StatusOK, model.LoanResponse{Message: "Loan rejected", Loan: loan})
}

// ReturnLoan godoc
// @Summary Return a borrowed book
// @Tags loans
// @Accept json
// @Produce json
// @Param request body model.LoanActionRequest true "loan to close"
// @Success 200 {object} model.ReturnLoanResponse
// @Failure 400 {object} echo.HTTPError
// @Failure 404 {object} echo.HTTPError
// @Router /loans/return [post]
func (h *Handler) ReturnLoan(c echo.Context) error {
	loanID, err := bindLoanID(c)
	if err != nil {
		return err
	}
	loan, err := h.loanSvc.ReturnLoan(c.Request().Context(), loanID, h.now())
	if err != nil {
		return toHTTPError(err)
	}
	h.publish(kafka.LoanReturned, loan)
	return c.JSON(http.StatusOK, model.ReturnLoanResponse{Message: "Book returned", Fine: loan.Fine})
}

// ExtendLoan godoc
// @Summary Extend the due date of an own loan
// @Tags loans
// @Accept json
// @Produce json
// @Param request body model.LoanActionRequest true "loan to extend"
// @Success 200 {object} model.ExtendLoanResponse
// @Failure 400 {object} echo.HTTPError
// @Failure 403 {object} echo.HTTPError
// @Failure 404 {object} echo.HTTPError
// @Router /loans/extend [post]
func (h *Handler) ExtendLoan(c echo.Context) error {
	loanID, err := bindLoanID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	loan, err := h.loanSvc.ExtendLoan(ctx, loanID, auth.UserName(ctx), h.now())
	if err != nil {
		return toHTTPError(err)
	}
	h.publish(kafka.LoanExtended, loan)
	return c.JSON(http.StatusOK, model.ExtendLoanResponse{Message: "Loan extended", DueAt: *loan.DueAt})
}

// ListLoans godoc
// @Summary List loans, all of them for admins and own ones for members
// @Tags loans
// @Produce json
// @Success 200 {object} model.ListLoans
// @Router /loans [get]
func (h *Handler) ListLoans(c echo.Context) error {
	ctx := c.Request().Context()
	memberID := auth.UserName(ctx)
	if auth.IsAdmin(ctx) {
		memberID = ""
	}
	items, err := h.loanSvc.ListLoans(ctx, memberID)
	if err != nil {
		return toHTTPError(err)
	}
	if items == nil {
		items = []model.LoanDetails{}
	}
	return c.JSON(http.StatusOK, model.ListLoans{Items: items})
}

// GetLoan godoc
// @Summary Get a loan
// @Tags loans
// @Produce json
// @Param loanId path string true "loan id"
// @Success 200 {object} model.Loan
// @Failure 403 {object} echo.HTTPError
// @Failure 404 {object} echo.HTTPError
// @Router /loans/{loanId} [get]
func (h *Handler) GetLoan(c echo.Context) error {
	loanID := c.Param("loanId")
	if loanID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "loanId is empty")
	}
	ctx := c.Request().Context()
	loan, err := h.loanSvc.GetLoan(ctx, loanID)
	if err != nil {
		return toHTTPError(err)
	}
	if !auth.IsAdmin(ctx) && loan.MemberID != auth.UserName(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "not the loan owner")
	}
	return c.JSON(http.StatusOK, loan)
}

// GetStatistics godoc
// @Summary Dashboard counters
// @Tags stats
// @Produce json
// @Success 200 {object} model.Statistics
// @Router /stats [get]
func (h *Handler) GetStatistics(c echo.Context) error {
	st, err := h.loanSvc.GetStatistics(c.Request().Context(), h.now())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, st)
}

// DeleteBook godoc
// @Summary Delete a book nobody holds
// @Tags books
// @Param bookId path string true "book id"
// @Success 204
// @Failure 400 {object} echo.HTTPError
// @Failure 404 {object} echo.HTTPError
// @Router /books/{bookId} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	bookID := c.Param("bookId")
	if bookID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bookId is empty")
	}
	if err := h.loanSvc.DeleteBook(c.Request().Context(), bookID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func bindLoanID(c echo.Context) (string, error) {
	var req model.LoanActionRequest
	if err := c.Bind(&req); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return req.LoanID, nil
}

// publish reports the new loan state. A failed publish is logged only, the
// operation itself has already committed.
func (h *Handler) publish(eventType kafka.LoanEventType, loan model.Loan) {
	ev := kafka.LoanEvent{
		Timestamp: h.now(),
		EventType: eventType,
		LoanID:    loan.ID,
		MemberID:  loan.MemberID,
		BookID:    loan.BookID,
		Status:    string(loan.Status),
		DueAt:     loan.DueAt,
		Fine:      loan.Fine,
	}
	if err := h.enqueuer.Enqueue(kafka.LoanTopic, ev); err != nil {
		h.log.Warn("publish loan event",
			zap.String("loanId", loan.ID),
			zap.String("eventType", string(eventType)),
			zap.Error(err))
	}
}
