package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vstoxxcli/internal/infrastructure"
	"vstoxxcli/internal/vstoxx"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNewErrorHandler(t *testing.T) {
	handler := NewErrorHandler(testLogger(), true)
	assert.True(t, handler.includeStack)
	assert.NotNil(t, handler.logger)

	assert.NotNil(t, NewErrorHandler(nil, false).logger)
}

func TestErrorHandler_ErrorToProblem(t *testing.T) {
	date := time.Date(2014, time.January, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "deadline exceeded",
			err:        fmt.Errorf("compute: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "api error",
			err:        InvalidRequestWithError(fmt.Errorf("unexpected EOF")),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "body too large",
			err:        &http.MaxBytesError{Limit: 1024},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
		},
		{
			name:       "missing field",
			err:        vstoxx.NewMissingFieldError(0, date, "V6I2"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeMissingField,
		},
		{
			name:       "invalid date",
			err:        vstoxx.NewInvalidDateError(0, date, nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeInvalidDate,
		},
		{
			name:       "degenerate lifetime",
			err:        vstoxx.NewDegenerateLifetimeError(0, date, 1, 1),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDegenerateLifetime,
		},
		{
			name:       "negative radicand wrapped",
			err:        fmt.Errorf("compute: %w", vstoxx.NewNegativeRadicandError(3, date, -2)),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeNegativeRadicand,
		},
		{
			name: "several row errors",
			err: vstoxx.RowErrors{
				vstoxx.NewMissingFieldError(0, date, "V2TX"),
				vstoxx.NewNegativeRadicandError(1, date, -2),
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeComputation,
		},
		{
			name:       "app validation error",
			err:        NewAppValidationError("dates must increase"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "app parsing error",
			err:        NewParsingError("bad row", fmt.Errorf("strconv")),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDataCorrupted,
		},
		{
			name:       "app storage error",
			err:        NewStorageError("upsert failed", fmt.Errorf("conn refused")),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeStorage,
		},
		{
			name:       "app config error",
			err:        NewConfigError("bad", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
		{
			name:       "plain error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	handler := NewErrorHandler(testLogger(), false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vstoxx/compute", nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := handler.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/v1/vstoxx/compute", problem.Instance)
		})
	}
}

func TestErrorHandler_HandleError(t *testing.T) {
	handler := NewErrorHandler(testLogger(), false)

	t.Run("nil error writes nothing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("row error carries details and trace id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/vstoxx/compute", nil)
		req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-abc"))
		rec := httptest.NewRecorder()

		date := time.Date(2014, time.January, 2, 0, 0, 0, 0, time.UTC)
		handler.HandleError(rec, req, vstoxx.NewMissingFieldError(4, date, "V6I2"))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeProblem(t, rec)
		assert.Equal(t, TypeMissingField, body["type"])
		assert.Equal(t, "trace-abc", body["trace_id"])

		rows, ok := body["row_errors"].([]interface{})
		require.True(t, ok)
		require.Len(t, rows, 1)
		first := rows[0].(map[string]interface{})
		assert.Equal(t, "missing_field", first["kind"])
		assert.Equal(t, float64(4), first["index"])
		assert.Equal(t, "V6I2", first["field"])
	})

	t.Run("stack only on server errors", func(t *testing.T) {
		verbose := NewErrorHandler(testLogger(), true)

		rec := httptest.NewRecorder()
		verbose.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("boom"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decodeProblem(t, rec), "stack")

		rec = httptest.NewRecorder()
		verbose.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), ErrInvalidParameter)
		assert.NotContains(t, decodeProblem(t, rec), "stack")
	})
}

func TestErrorHandler_apiErrorToProblem(t *testing.T) {
	handler := NewErrorHandler(testLogger(), false)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/settlements", nil)

	problem := handler.apiErrorToProblem(InvalidParameter("from", fmt.Errorf("bad date")), req)
	assert.Equal(t, http.StatusBadRequest, problem.Status)
	assert.Equal(t, TypeValidation, problem.Type)
	assert.Equal(t, "INVALID_PARAMETER", problem.Extensions["error_code"])
	assert.Equal(t, "bad date", problem.Extensions["details"])

	problem = handler.apiErrorToProblem(ErrRateLimitExceeded, req)
	assert.Equal(t, TypeRateLimit, problem.Type)
	assert.NotContains(t, problem.Extensions, "details")
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	rec := httptest.NewRecorder()
	NewErrorHandler(testLogger(), true).HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/x", nil), "kaboom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "kaboom", body["panic"])
	assert.Equal(t, TypeInternal, body["type"])
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	handler := NewErrorHandler(testLogger(), false)

	rec := httptest.NewRecorder()
	handler.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/nope", decodeProblem(t, rec)["instance"])

	rec = httptest.NewRecorder()
	handler.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.True(t, strings.Contains(decodeProblem(t, rec)["detail"].(string), "DELETE"))
}

func TestProblemDetailsJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "", "").
		WithExtension("errors", []string{"a"}).
		WithExtension("type", "ignored")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeValidation, body["type"])
	assert.Equal(t, float64(400), body["status"])
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, "instance")
	assert.Equal(t, []interface{}{"a"}, body["errors"])

	var empty ProblemDetails
	empty.WithExtension("k", 1)
	assert.Equal(t, 1, empty.Extensions["k"])
}
