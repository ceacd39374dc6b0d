package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeUpperCaseWithUnderscores(t *testing.T) {
	assert.Equal(t, "BAD_REQUEST", MakeUpperCaseWithUnderscores("Bad Request"))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", MakeUpperCaseWithUnderscores(http.StatusText(http.StatusInternalServerError)))
}

func TestNewBadRequestErrorCode(t *testing.T) {
	assert.Equal(t, "BAD_REQUEST", NewBadRequestError("x", false, nil, nil, nil).Code)

	err := NewBadRequestError("cycle", true, Code("WORKSTATION_TREE_CYCLE"), []FieldError{{Field: "id", Error: "bad"}}, nil)
	assert.Equal(t, "WORKSTATION_TREE_CYCLE", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.Len(t, err.Errors, 1)
}

func TestNewNotFoundErrorCode(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", NewNotFoundError("x", false, nil).Code)
	assert.Equal(t, "CITY_NOT_FOUND", NewNotFoundError("x", true, Code("CITY_NOT_FOUND")).Code)
}

func TestStatusOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewNotFoundError("gone", false, nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(wrapped))
	assert.Equal(t, 0, StatusOf(errors.New("plain")))
}

func TestHTTPErrorIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewUnauthorizedError("no", false))
	assert.True(t, errors.Is(err, &HTTPError{}))
	assert.False(t, errors.Is(errors.New("plain"), &HTTPError{}))
}

func TestWithMessageCopies(t *testing.T) {
	original := NewForbiddenError("first", true)
	copied := original.WithMessage("second")

	assert.Equal(t, "first", original.Message)
	assert.Equal(t, "second", copied.Message)
	assert.Equal(t, original.Code, copied.Code)
}
