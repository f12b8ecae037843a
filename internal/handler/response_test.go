package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet/internal/service"
)

func errorResponse(t *testing.T, err error) (int, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/timesheets", nil)

	respondError(c, err)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestRespondErrorKeepsMappedMessages(t *testing.T) {
	status, body := errorResponse(t, service.ErrForbidden)

	assert.Equal(t, http.StatusForbidden, status)
	assert.False(t, body.Success)
	assert.Equal(t, service.ErrForbidden.Error(), body.Message)
}

func TestRespondErrorHidesUnmappedDetail(t *testing.T) {
	status, body := errorResponse(t, errors.New(`pq: relation "timesheets" does not exist`))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.False(t, body.Success)
	assert.Equal(t, "something went wrong", body.Message)
	assert.NotContains(t, body.Message, "pq:")
}
