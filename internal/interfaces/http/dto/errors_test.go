package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus("NOT_FOUND"))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus("INSUFFICIENT_STOCK"))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus("OPTIMISTIC_LOCK_FAILED"))
	assert.Equal(t, http.StatusServiceUnavailable, GetHTTPStatus("BUSY"))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus("INVALID_TRANSITION"))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus("SCHEDULE_OVERFLOW"))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(ErrCodeInternal))
}

func TestGetHTTPStatusUnknownCode(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus("SOMETHING_NEW"))
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a"}, 45, 2, 20)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}
