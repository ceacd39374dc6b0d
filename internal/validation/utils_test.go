package validation_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/workstations/internal/errs"
	"github.com/deppfellow/workstations/internal/model"
	"github.com/deppfellow/workstations/internal/validation"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(method, target, body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func requireHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected HTTPError, got %v", err)
	return httpErr
}

func TestBindAndValidateMalformedJSON(t *testing.T) {
	c := newContext(http.MethodPost, "/api/v1/workstations", `{"name":`)

	err := validation.BindAndValidate(c, &model.CreateWorkstationDto{})
	httpErr := requireHTTPError(t, err)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.NotEmpty(t, httpErr.Message)
}

func TestBindAndValidateFieldErrors(t *testing.T) {
	c := newContext(http.MethodPost, "/api/v1/workstations", `{"ip":"999.1.1.1","city_id":"x"}`)

	err := validation.BindAndValidate(c, &model.CreateWorkstationDto{})
	httpErr := requireHTTPError(t, err)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "Validation failed", httpErr.Message)

	got := map[string]string{}
	for _, fe := range httpErr.Errors {
		got[fe.Field] = fe.Error
	}
	assert.Equal(t, "is required", got["name"])
	assert.Equal(t, "must be a valid IP address", got["ip"])
	assert.Equal(t, "must be a valid UUID", got["city_id"])
}

func TestBindAndValidateNestedFieldPath(t *testing.T) {
	id := uuid.NewString()
	c := newContext(http.MethodDelete, "/api/v1/workstations/"+id, `{"data":[{"reallocatedId":"`+uuid.NewString()+`"}]}`)
	c.SetParamNames("id")
	c.SetParamValues(id)

	err := validation.BindAndValidate(c, &model.DeleteWorkstationDto{})
	httpErr := requireHTTPError(t, err)
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "data[0].destinationId", httpErr.Errors[0].Field)
}

func TestBindAndValidateOK(t *testing.T) {
	id := uuid.NewString()
	c := newContext(http.MethodGet, "/api/v1/workstations/"+id, "")
	c.SetParamNames("id")
	c.SetParamValues(id)

	req := &model.GetWorkstationRequest{}
	require.NoError(t, validation.BindAndValidate(c, req))
	assert.Equal(t, id, req.ID)
}

type loopPayload struct{}

func (*loopPayload) Validate() error {
	return validation.CustomValidationErrors{{Field: "tree", Message: "must not loop"}}
}

type oddPayload struct{}

func (*oddPayload) Validate() error {
	return errors.New("odd")
}

func TestBindAndValidateCustomErrors(t *testing.T) {
	c := newContext(http.MethodGet, "/", "")

	httpErr := requireHTTPError(t, validation.BindAndValidate(c, &loopPayload{}))
	assert.Equal(t, "Validation failed", httpErr.Message)
	assert.Equal(t, []errs.FieldError{{Field: "tree", Error: "must not loop"}}, httpErr.Errors)
}

func TestBindAndValidateUnknownError(t *testing.T) {
	c := newContext(http.MethodGet, "/", "")

	httpErr := requireHTTPError(t, validation.BindAndValidate(c, &oddPayload{}))
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "request", httpErr.Errors[0].Field)
}

func TestBindAndValidateDuplicateReallocation(t *testing.T) {
	id, child := uuid.NewString(), uuid.NewString()
	body := `{"data":[` +
		`{"reallocatedId":"` + child + `","destinationId":"` + uuid.NewString() + `"},` +
		`{"reallocatedId":"` + child + `","destinationId":"` + uuid.NewString() + `"}]}`
	c := newContext(http.MethodDelete, "/api/v1/workstations/"+id, body)
	c.SetParamNames("id")
	c.SetParamValues(id)

	httpErr := requireHTTPError(t, validation.BindAndValidate(c, &model.DeleteWorkstationDto{}))
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "data[1].reallocatedId", httpErr.Errors[0].Field)
}
