package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// エラーの種類（レスポンスのkind）
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindProcessor    ErrorKind = "processor"
	KindPrecondition ErrorKind = "precondition"
	KindLookup       ErrorKind = "lookup"
	KindPersistence  ErrorKind = "persistence"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindInternal     ErrorKind = "internal"
)

type HTTPError struct {
	Status  int
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// kindはステータスから決める
func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Kind:    kindForStatus(status),
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func IsKind(err error, kind ErrorKind) bool {
	he, ok := AsHTTPError(err)
	return ok && he.Kind == kind
}

func validationError(message string) error {
	return &HTTPError{Status: http.StatusBadRequest, Kind: KindValidation, Message: message}
}

// 決済会社の文言をそのまま返す
func processorError(message string, cause error) error {
	return &HTTPError{Status: http.StatusPaymentRequired, Kind: KindProcessor, Message: message, Err: cause}
}

func preconditionError(message string) error {
	return &HTTPError{Status: http.StatusConflict, Kind: KindPrecondition, Message: message}
}

// 無効なコード（クーポン・ギフトカード）
func invalidCodeError(message string) error {
	return &HTTPError{Status: http.StatusBadRequest, Kind: KindLookup, Message: message}
}

func notFoundError(message string) error {
	return &HTTPError{Status: http.StatusNotFound, Kind: KindLookup, Message: message}
}

func persistenceError(message string, cause error) error {
	return &HTTPError{Status: http.StatusInternalServerError, Kind: KindPersistence, Message: message, Err: cause}
}

func internalError(cause error) error {
	return &HTTPError{Status: http.StatusInternalServerError, Kind: KindInternal, Message: "internal error", Err: cause}
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindLookup
	case http.StatusConflict:
		return KindPrecondition
	case http.StatusPaymentRequired:
		return KindProcessor
	default:
		return KindInternal
	}
}

func unauthorizedError() error {
	return &HTTPError{Status: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "unauthorized"}
}
