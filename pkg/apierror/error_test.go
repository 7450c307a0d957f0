package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeNotFound, CodeOf(NotFound()))

	wrapped := fmt.Errorf("failed to fetch page 2: %w", ServerUnavailable(503))
	assert.Equal(t, CodeServerUnavailable, CodeOf(wrapped))
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ClientError(429))

	assert.True(t, errors.Is(err, ClientError(400)))
	assert.False(t, errors.Is(err, UnknownStatus(429)))
}

func TestCacheFailuresUnwrapCause(t *testing.T) {
	cause := errors.New("disk I/O error")

	readErr := CacheReadFailure(cause)
	assert.ErrorIs(t, readErr, cause)
	assert.Contains(t, readErr.Error(), "disk I/O error")

	writeErr := CacheWriteFailure(cause)
	assert.ErrorIs(t, writeErr, cause)
	assert.Equal(t, CodeCacheWriteFailure, writeErr.Code)
}

func TestToJSON(t *testing.T) {
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Status  int    `json:"status"`
		} `json:"error"`
	}

	require.NoError(t, json.Unmarshal(ServerUnavailable(502).ToJSON(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "SERVER_UNAVAILABLE", body.Error.Code)
	assert.Equal(t, 502, body.Error.Status)
	assert.Equal(t, "Server error occurred with code: 502", body.Error.Message)
}

func TestAccessDeniedStatus(t *testing.T) {
	err := AccessDenied()
	assert.Equal(t, http.StatusForbidden, err.StatusCode)
	assert.Equal(t, "No access. The resource is private or does not exist.", err.Message)
}
