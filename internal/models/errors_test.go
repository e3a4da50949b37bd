package models_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnaudderison/logtime19/internal/models"
)

func TestAPIErrorError(t *testing.T) {
	tests := []struct {
		name        string
		error       *models.APIError
		expectedMsg string
	}{
		{
			name:        "error_with_message",
			error:       &models.APIError{Code: "unauthorized", Message: "Authorization token required"},
			expectedMsg: "unauthorized: Authorization token required",
		},
		{
			name:        "error_without_message",
			error:       &models.APIError{Code: "server_error"},
			expectedMsg: "server_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedMsg, tt.error.Error())
		})
	}
}

func TestAPIErrorConstructors(t *testing.T) {
	tests := []struct {
		name           string
		err            *models.APIError
		expectedCode   string
		expectedStatus int
	}{
		{"invalid_request", models.NewInvalidRequest("missing code"), models.CodeInvalidRequest, http.StatusBadRequest},
		{"unauthorized", models.NewUnauthorized("no token"), models.CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden_origin", models.NewForbiddenOrigin("https://evil.example"), models.CodeForbiddenOrigin, http.StatusForbidden},
		{"not_found", models.NewNotFound(), models.CodeNotFound, http.StatusNotFound},
		{"method_not_allowed", models.NewMethodNotAllowed(http.MethodPut), models.CodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{"unsupported_media", models.NewUnsupportedMediaType("json only"), models.CodeUnsupportedMedia, http.StatusUnsupportedMediaType},
		{"upstream_rejected", models.NewUpstreamRejected(http.StatusForbidden, "forbidden"), models.CodeUpstreamRejected, http.StatusForbidden},
		{"upstream_error", models.NewUpstreamError("boom"), models.CodeUpstreamError, http.StatusInternalServerError},
		{"gateway_timeout", models.NewGatewayTimeout("slow"), models.CodeGatewayTimeout, http.StatusGatewayTimeout},
		{"server_error", models.NewServerError("oops"), models.CodeServerError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedCode, tt.err.Code)
			assert.Equal(t, tt.expectedStatus, tt.err.StatusCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestAPIErrorJSON(t *testing.T) {
	data, err := json.Marshal(models.NewUnauthorized("Authorization token required"))
	require.NoError(t, err)

	assert.JSONEq(t, `{"error":"unauthorized","message":"Authorization token required"}`, string(data))
}

func TestAPIErrorWithMessage(t *testing.T) {
	err := models.NewServerError("first")

	result := err.WithMessage("second")

	assert.Equal(t, "second", result.Message)
	assert.Same(t, err, result)
}

func TestLocationJSON(t *testing.T) {
	t.Run("open_session_keeps_null_end", func(t *testing.T) {
		loc := models.Location{BeginAt: "2024-02-05T09:00:00.000Z", Host: "c1r1p1"}

		data, err := json.Marshal(loc)
		require.NoError(t, err)

		assert.JSONEq(t, `{"begin_at":"2024-02-05T09:00:00.000Z","end_at":null,"host":"c1r1p1"}`, string(data))
	})

	t.Run("decodes_upstream_record_ignoring_extra_fields", func(t *testing.T) {
		raw := `{"id":1,"begin_at":"2024-02-05T09:00:00.000Z","end_at":"2024-02-05T11:00:00.000Z","host":"c1r1p1","primary":true}`

		var loc models.Location
		require.NoError(t, json.Unmarshal([]byte(raw), &loc))

		require.NotNil(t, loc.EndAt)
		assert.Equal(t, "2024-02-05T11:00:00.000Z", *loc.EndAt)
		assert.Equal(t, "c1r1p1", loc.Host)
	})
}

func TestLocation_UnmarshalLenient(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantMalformed string
		wantBeginAt   string
		wantEndAtNil  bool
	}{
		{
			name:         "well_formed",
			raw:          `{"begin_at":"2024-02-05T09:00:00.000Z","end_at":null,"host":"c1r1p1"}`,
			wantBeginAt:  "2024-02-05T09:00:00.000Z",
			wantEndAtNil: true,
		},
		{
			name:          "numeric_begin_at",
			raw:           `{"begin_at":12345,"end_at":null,"host":"c2"}`,
			wantMalformed: models.FieldBeginAt,
			wantEndAtNil:  true,
		},
		{
			name:          "numeric_end_at",
			raw:           `{"begin_at":"2024-02-05T09:00:00.000Z","end_at":5,"host":"c2"}`,
			wantMalformed: models.FieldEndAt,
			wantBeginAt:   "2024-02-05T09:00:00.000Z",
			wantEndAtNil:  true,
		},
		{
			name:          "object_host",
			raw:           `{"begin_at":"2024-02-05T09:00:00.000Z","end_at":null,"host":{"name":"c2"}}`,
			wantMalformed: models.FieldHost,
			wantBeginAt:   "2024-02-05T09:00:00.000Z",
			wantEndAtNil:  true,
		},
		{
			name:          "not_an_object",
			raw:           `"c1r1p1"`,
			wantMalformed: models.FieldRecord,
			wantEndAtNil:  true,
		},
		{
			name:          "null_element",
			raw:           `null`,
			wantMalformed: models.FieldRecord,
			wantEndAtNil:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var loc models.Location
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &loc))

			assert.Equal(t, tt.wantMalformed, loc.Malformed)
			assert.Equal(t, tt.wantBeginAt, loc.BeginAt)
			assert.Equal(t, tt.wantEndAtNil, loc.EndAt == nil)
		})
	}
}

func TestLocation_UnmarshalPageKeepsGoodRecords(t *testing.T) {
	raw := `[
		{"begin_at":"2024-02-05T08:00:00.000Z","end_at":"2024-02-05T09:00:00.000Z","host":"c1"},
		{"begin_at":12345,"end_at":null,"host":"c2"}
	]`

	var page []models.Location
	require.NoError(t, json.Unmarshal([]byte(raw), &page))

	require.Len(t, page, 2)
	assert.Empty(t, page[0].Malformed)
	assert.Equal(t, models.FieldBeginAt, page[1].Malformed)
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, time.February, 5, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	assert.Equal(t, "2024-02-05T09:00:00.000Z", models.FormatTimestamp(ts))
}
