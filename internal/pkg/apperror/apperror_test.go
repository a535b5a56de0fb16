package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:             http.StatusBadRequest,
		KindNotFound:               http.StatusNotFound,
		KindConflict:               http.StatusConflict,
		KindForeignResource:        http.StatusUnprocessableEntity,
		KindPermission:             http.StatusForbidden,
		KindInvalidStateTransition: http.StatusConflict,
		KindPersistence:            http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.HTTPStatus(), string(kind))
	}
}

func TestPersistenceKeepsExistingKind(t *testing.T) {
	notFound := New(KindNotFound, "missing")
	wrapped := fmt.Errorf("lookup: %w", notFound)

	err := Persistence(wrapped, "storage failure")
	assert.Same(t, wrapped, err)

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, appErr.Kind)
}

func TestPersistenceWrapsPlainErrors(t *testing.T) {
	cause := errors.New("connection reset")

	err := Persistence(cause, "storage failure")
	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, KindPersistence, appErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.ErrorIs(t, err, cause)

	assert.NoError(t, Persistence(nil, "unused"))
}
