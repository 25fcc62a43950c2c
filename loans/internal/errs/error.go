package errs

import (
	"github.com/pkg/errors"
)

// Kind classifies a business rule failure. All kinds are expected outcomes the
// caller can act on, none of them is worth retrying.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidState
	KindResourceExhausted
	KindForbidden
	KindPolicyViolation
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindInvalidState:
		return "InvalidState"
	case KindResourceExhausted:
		return "ResourceExhausted"
	case KindForbidden:
		return "Forbidden"
	case KindPolicyViolation:
		return "PolicyViolation"
	case KindInvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

var (
	ErrBookNotFound = &Error{Kind: KindNotFound, Msg: "book not found"}
	ErrLoanNotFound = &Error{Kind: KindNotFound, Msg: "loan not found"}

	ErrLoanNotPending     = &Error{Kind: KindInvalidState, Msg: "loan is already processed"}
	ErrLoanNotApproved    = &Error{Kind: KindInvalidState, Msg: "loan is not borrowed"}
	ErrBookHasActiveLoans = &Error{Kind: KindInvalidState, Msg: "book is borrowed and cannot be deleted"}

	ErrBookUnavailable = &Error{Kind: KindResourceExhausted, Msg: "book is not available"}
	ErrQuotaExceeded   = &Error{Kind: KindResourceExhausted, Msg: "active loan limit reached"}

	ErrNotOwner = &Error{Kind: KindForbidden, Msg: "loan belongs to another member"}

	ErrAlreadyExtended       = &Error{Kind: KindPolicyViolation, Msg: "loan is already extended"}
	ErrExtensionWindowClosed = &Error{Kind: KindPolicyViolation, Msg: "loan is overdue and cannot be extended"}

	ErrInvalidStock = &Error{Kind: KindInvalidArgument, Msg: "total copies must not be negative"}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
