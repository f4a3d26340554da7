package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError. The API layer maps it to a status code.
type ErrorType string

const (
	ErrorTypeConflict          ErrorType = "CONFLICT"
	ErrorTypeCorpusDoesntExist ErrorType = "CORPUS_DOESNT_EXIST"
	ErrorTypeDocumentName      ErrorType = "DOCUMENT_NAME_ERROR"
	ErrorTypeNotImplemented    ErrorType = "NOT_IMPLEMENTED"
	ErrorTypeNotFound          ErrorType = "NOT_FOUND"
)

// AppError is a domain error raised before commit. The graph store is left
// unchanged whenever one is returned from a registry operation.
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"eng"`
	MessageRus string    `json:"rus,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError of the same type, so the package sentinels work with
// errors.Is regardless of message.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// WithCause wraps an underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// WithRus attaches the russian rendering of the message.
func (e *AppError) WithRus(msg string) *AppError {
	e.MessageRus = msg
	return e
}

var (
	ErrConflict          = &AppError{Type: ErrorTypeConflict}
	ErrCorpusDoesntExist = &AppError{Type: ErrorTypeCorpusDoesntExist}
	ErrDocumentName      = &AppError{Type: ErrorTypeDocumentName}
	ErrNotImplemented    = &AppError{Type: ErrorTypeNotImplemented}
	ErrNotFound          = &AppError{Type: ErrorTypeNotFound}
)

func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func NewCorpusDoesntExistError(corpID string) *AppError {
	return &AppError{
		Type:       ErrorTypeCorpusDoesntExist,
		Message:    fmt.Sprintf("corpus with id %s doesn't exist", corpID),
		MessageRus: fmt.Sprintf("корпус с id %s не существует", corpID),
		HTTPStatus: http.StatusConflict,
	}
}

func NewDocumentNameError(docID string) *AppError {
	return &AppError{
		Type:       ErrorTypeDocumentName,
		Message:    fmt.Sprintf("document with id %s already exists", docID),
		MessageRus: fmt.Sprintf("документ с id %s уже существует", docID),
		HTTPStatus: http.StatusConflict,
	}
}

func NewNotImplementedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotImplemented,
		Message:    message,
		HTTPStatus: http.StatusNotImplemented,
	}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

// StatusOf returns the HTTP status for err, 500 for anything that is not an
// AppError.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
