package tool

import (
	"errors"
	"fmt"

	"github.com/tanpawarit/Chative-Shopping-Assistant/pkg/commerce"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindTimeout           ErrorKind = "timeout"
	KindConnectionFailure ErrorKind = "connection_failure"
	KindHTTPStatus        ErrorKind = "http_status"
	KindNotFound          ErrorKind = "not_found"
	KindUnexpected        ErrorKind = "unexpected"
)

const (
	msgCartIDRequired    = "Necesitas proporcionar un cart_id válido."
	msgTimeout           = "La solicitud al servidor tardó demasiado. Intenta de nuevo."
	msgConnectionFailure = "No se pudo conectar al servidor. Verifica tu conexión."
)

// Error is the user-visible failure of a tool call. Message is safe to show to the user.
type Error struct {
	Kind    ErrorKind
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

var errCartIDRequired = &Error{Kind: KindValidation, Message: msgCartIDRequired}

// failureText holds the per-operation wording for backend failures.
type failureText struct {
	timeout    string
	notFound   string // empty when the operation is not a lookup
	status     string // "<status>: <code>"
	unexpected string // "<unexpected>: <cause>"
}

func (f failureText) wrap(err error) *Error {
	var te *Error
	if errors.As(err, &te) {
		return te
	}

	var se *commerce.StatusError
	switch {
	case errors.Is(err, commerce.ErrTimeout):
		msg := f.timeout
		if msg == "" {
			msg = msgTimeout
		}
		return &Error{Kind: KindTimeout, Message: msg, Err: err}
	case errors.Is(err, commerce.ErrConnection):
		return &Error{Kind: KindConnectionFailure, Message: msgConnectionFailure, Err: err}
	case errors.As(err, &se):
		if commerce.IsNotFound(err) && f.notFound != "" {
			return &Error{Kind: KindNotFound, Code: se.Code, Message: f.notFound, Err: err}
		}
		return &Error{Kind: KindHTTPStatus, Code: se.Code, Message: fmt.Sprintf("%s: %d", f.status, se.Code), Err: err}
	default:
		return &Error{Kind: KindUnexpected, Message: fmt.Sprintf("%s: %v", f.unexpected, err), Err: err}
	}
}
