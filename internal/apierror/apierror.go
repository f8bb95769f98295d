// Package apierror provides the error taxonomy shared by services and transports.
// Every error shown to a client goes through this package so that business
// conditions keep their human-readable message and infrastructure details
// (SQL, stack traces, driver errors) never leak.
package apierror

import (
	"errors"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx REST responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Erro de validação", Fields: fields}
}

// Kind classifies an Error for transport mapping.
type Kind int

const (
	KindInfrastructure Kind = iota
	KindAuthorization
	KindValidation
	KindConflict
	KindPrecondition
	KindNotFound
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindAuthorization:
		return "UNAUTHORIZED"
	case KindValidation:
		return "BAD_USER_INPUT"
	case KindConflict:
		return "CONFLICT"
	case KindPrecondition:
		return "PRECONDITION_FAILED"
	case KindNotFound:
		return "NOT_FOUND"
	case KindExternal:
		return "EXTERNAL_DEPENDENCY"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// HTTPStatus maps a kind to the REST status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindAuthorization:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindPrecondition:
		return http.StatusPreconditionFailed
	case KindNotFound:
		return http.StatusNotFound
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified, user-facing error. Message is safe to show to the
// client; Err keeps the underlying cause for logs and errors.Is.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Extensions is picked up by the GraphQL executor and rendered in the
// "extensions" member of the error.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.Kind.String()}
	if len(e.Fields) > 0 {
		ext["fields"] = e.Fields
	}
	return ext
}

// Is lets errors.Is match two *Error values of the same kind and message,
// so sentinels below can be compared after being wrapped.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

func newErr(kind Kind, msg string, cause ...error) *Error {
	e := &Error{Kind: kind, Message: msg}
	if len(cause) > 0 {
		e.Err = cause[0]
	}
	return e
}

func Authorization(msg string, cause ...error) *Error { return newErr(KindAuthorization, msg, cause...) }
func Conflict(msg string, cause ...error) *Error      { return newErr(KindConflict, msg, cause...) }
func Precondition(msg string, cause ...error) *Error  { return newErr(KindPrecondition, msg, cause...) }
func NotFound(msg string, cause ...error) *Error      { return newErr(KindNotFound, msg, cause...) }
func External(msg string, cause ...error) *Error      { return newErr(KindExternal, msg, cause...) }
func Infrastructure(msg string, cause ...error) *Error {
	return newErr(KindInfrastructure, msg, cause...)
}

// Validation builds a validation error, optionally carrying per-field tags.
func Validation(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

var (
	ErrUnauthorizedCollection = Authorization("acesso não autorizado: collection exige uma loja")
	ErrUnauthenticated        = Authorization("autenticação necessária")
	ErrForbidden              = Authorization("permissão insuficiente para esta operação")
	ErrNotFound               = NotFound("registro não encontrado")
	ErrNoOpenSession          = Conflict("nenhum caixa aberto encontrado")
	ErrSessionAlreadyOpen     = Conflict("já existe um caixa aberto para esta loja")
	ErrOrderNotPending        = Conflict("ordem de compra não encontrada ou já recebida")
	ErrTxAborted              = Infrastructure("transação abortada sem causa registrada")
)

// KindOf returns the kind of err, defaulting to KindInfrastructure for
// unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInfrastructure
}

// Public converts any error into one safe to return to a client. Classified
// errors pass through; anything else becomes a generic internal error that
// still wraps the cause for logging.
func Public(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInfrastructure {
		return e
	}
	return &Error{Kind: KindInfrastructure, Message: "erro interno do servidor", Err: err}
}
