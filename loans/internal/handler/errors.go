package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/library-loans/loans/internal/errs"
)

func httpStatus(err error) int {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindInvalidState, errs.KindResourceExhausted, errs.KindPolicyViolation, errs.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func toHTTPError(err error) *echo.HTTPError {
	return echo.NewHTTPError(httpStatus(err), err.Error())
}
