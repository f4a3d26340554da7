package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorIsMatchesByType(t *testing.T) {
	err := NewConflictError("corpus with id c1 already exists")

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)

	wrapped := fmt.Errorf("create corpus: %w", err)
	assert.ErrorIs(t, wrapped, ErrConflict)
}

func TestAppErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("constraint violated")
	err := NewDocumentNameError("d1").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrDocumentName)
	assert.Contains(t, err.Error(), "caused by: constraint violated")
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "conflict", err: NewConflictError("x"), want: http.StatusConflict},
		{name: "corpus missing", err: NewCorpusDoesntExistError("c"), want: http.StatusConflict},
		{name: "duplicate doc", err: NewDocumentNameError("d"), want: http.StatusConflict},
		{name: "not implemented", err: NewNotImplementedError("x"), want: http.StatusNotImplemented},
		{name: "not found", err: NewNotFoundError("document"), want: http.StatusNotFound},
		{name: "wrapped", err: fmt.Errorf("op: %w", NewNotFoundError("corpus")), want: http.StatusNotFound},
		{name: "transport", err: errors.New("dial tcp: refused"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}
