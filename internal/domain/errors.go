package domain

import (
	"errors"
	"fmt"
)

// Kind identifica la categoria de un error de dominio.
type Kind string

const (
	KindInvalidRequest      Kind = "INVALID_REQUEST"
	KindAlreadyAnswered     Kind = "ALREADY_ANSWERED"
	KindQuestionNotFound    Kind = "QUESTION_NOT_FOUND"
	KindResultNotFound      Kind = "RESULT_NOT_FOUND"
	KindSessionNotFound     Kind = "SESSION_NOT_FOUND"
	KindInsufficientAnswers Kind = "INSUFFICIENT_ANSWERS"
	KindCatalogInconsistent Kind = "CATALOG_INCONSISTENT"
	KindRateLimited         Kind = "RATE_LIMITED"
	KindInternal            Kind = "INTERNAL"
)

// Sentinelas para comparar con errors.Is; solo se compara el Kind.
var (
	ErrInvalidRequest      = &Error{Kind: KindInvalidRequest}
	ErrAlreadyAnswered     = &Error{Kind: KindAlreadyAnswered}
	ErrQuestionNotFound    = &Error{Kind: KindQuestionNotFound}
	ErrResultNotFound      = &Error{Kind: KindResultNotFound}
	ErrSessionNotFound     = &Error{Kind: KindSessionNotFound}
	ErrInsufficientAnswers = &Error{Kind: KindInsufficientAnswers}
	ErrCatalogInconsistent = &Error{Kind: KindCatalogInconsistent}
	ErrRateLimited         = &Error{Kind: KindRateLimited}
)

// Error es el error tipado que propagan los servicios.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// NewError crea un error de dominio con mensaje.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf crea un error de dominio con mensaje formateado.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap adjunta una causa a un error de dominio.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is compara por Kind, de modo que errors.Is(err, ErrAlreadyAnswered) funciona
// con cualquier mensaje.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf devuelve el Kind del primer *Error en la cadena, o KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf devuelve el mensaje publico de un error de dominio.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return "internal error"
}
