package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	deliverycontext "ownerauth/internal/delivery/context"
	domainerrors "ownerauth/internal/domain/errors"

	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	deliverycontext.SetRequestID(c, "req-1")

	return c, rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestError_StripsDetailsForSensitiveStatuses(t *testing.T) {
	tests := []struct {
		status      int
		wantDetails bool
	}{
		{status: http.StatusBadRequest, wantDetails: true},
		{status: http.StatusTooManyRequests, wantDetails: true},
		{status: http.StatusUnauthorized},
		{status: http.StatusForbidden},
		{status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c, rec := newContext()
			require.NoError(t, Error(c, tt.status, "CODE", "message", map[string]string{"k": "v"}))

			body := decodeError(t, rec)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "req-1", body.Meta.RequestID)
			if tt.wantDetails {
				assert.NotNil(t, body.Error.Details)
			} else {
				assert.Nil(t, body.Error.Details)
			}
		})
	}
}

func TestHandleAppError_RateLimitedSetsRetryAfter(t *testing.T) {
	c, rec := newContext()

	err := pkgerrors.WithStack(domainerrors.NewRateLimitedError(42))
	require.NoError(t, HandleAppError(c, err))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get(echo.HeaderRetryAfter))
	assert.JSONEq(t, `{"retry_after_sec":42}`, mustJSON(t, decodeError(t, rec).Error.Details))
}

func TestHandleAppError_PassesThroughUnknownErrors(t *testing.T) {
	c, rec := newContext()

	err := HandleAppError(c, pkgerrors.New("disk on fire"))
	require.Error(t, err)
	assert.False(t, c.Response().Committed)
	assert.Zero(t, rec.Body.Len())
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	return string(raw)
}
