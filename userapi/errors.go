package userapi

import (
	"errors"
	"fmt"
)

// FetchError is returned when the backend could not be reached or
// answered with a non-2xx status.
type FetchError struct {
	Op         string // operation name, like "list" or "create"
	StatusCode int    // zero on transport failures
	Message    string // message sent by the backend, if any
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		if e.Message != "" {
			return fmt.Sprintf("falha na operação %s, status %d: %s", e.Op, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("falha na operação %s, status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("falha na operação %s, erro %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidationError is returned when the backend rejects the payload
// of a create or update.
type ValidationError struct {
	Op      string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dados inválidos na operação %s", e.Op)
	}
	return fmt.Sprintf("dados inválidos na operação %s: %s", e.Op, e.Message)
}

// NotFoundError is returned by GetOne when the record does not exist.
type NotFoundError struct {
	ID      string
	Message string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("usuário com id [%s] não encontrado", e.ID)
}

// Message returns the message the backend attached to err, or the
// empty string when there is none.
func Message(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Message
	}
	return ""
}

// IsNotFound reports whether err is a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
