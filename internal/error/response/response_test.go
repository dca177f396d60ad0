package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
)

type fakeCodedError struct{}

func (fakeCodedError) Error() string         { return "boom" }
func (fakeCodedError) HTTPStatus() int       { return http.StatusForbidden }
func (fakeCodedError) BusinessCode() int     { return code.ErrForbidden }
func (fakeCodedError) PublicMessage() string { return "not allowed" }

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/test", nil)
	return c, w
}

func TestErrorUsesCodedError(t *testing.T) {
	c, w := newTestContext()

	Error(c, fmtWrap(fakeCodedError{}))

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, code.ErrForbidden, body.Code)
	assert.Equal(t, "not allowed", body.Error)
}

func TestErrorFallsBackToInternal(t *testing.T) {
	c, w := newTestContext()

	Error(c, errors.New("database exploded"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "database exploded")
}

func TestCreatedEnvelope(t *testing.T) {
	c, w := newTestContext()

	Created(c, "created", map[string]int{"id": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "created", body["message"])
	assert.Contains(t, body, "data")
}

func fmtWrap(err error) error {
	return &wrapped{err}
}

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }
