package session_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnaudderison/logtime19/internal/models"
	"github.com/arnaudderison/logtime19/internal/session"
)

func strPtr(s string) *string { return &s }

func TestNormalize(t *testing.T) {
	capture := time.Date(2024, time.February, 5, 11, 15, 0, 0, time.UTC)

	tests := []struct {
		name          string
		records       []models.Location
		expectedKept  int
		expectedDrops []session.DropReason
		validate      func(t *testing.T, res session.Result)
	}{
		{
			name: "closed_session",
			records: []models.Location{
				{BeginAt: "2024-02-05T08:00:00.000Z", EndAt: strPtr("2024-02-05T10:30:00.000Z"), Host: "c1r1p1"},
			},
			expectedKept: 1,
			validate: func(t *testing.T, res session.Result) {
				s := res.Sessions[0]
				assert.False(t, s.Open)
				assert.Equal(t, "c1r1p1", s.Host)
				assert.Equal(t, 150*time.Minute, s.End.Sub(s.Begin))
			},
		},
		{
			name: "null_end_is_open_session",
			records: []models.Location{
				{BeginAt: "2024-02-05T09:00:00.000Z", EndAt: nil, Host: "c2r4p7"},
			},
			expectedKept: 1,
			validate: func(t *testing.T, res session.Result) {
				s := res.Sessions[0]
				assert.True(t, s.Open)
				assert.True(t, s.End.Equal(capture))
			},
		},
		{
			name: "empty_end_is_open_session",
			records: []models.Location{
				{BeginAt: "2024-02-05T09:00:00Z", EndAt: strPtr(""), Host: "c2r4p7"},
			},
			expectedKept: 1,
			validate: func(t *testing.T, res session.Result) {
				assert.True(t, res.Sessions[0].Open)
			},
		},
		{
			name: "end_before_begin_dropped",
			records: []models.Location{
				{BeginAt: "2024-02-05T10:00:00.000Z", EndAt: strPtr("2024-02-05T09:00:00.000Z"), Host: "c1r1p1"},
				{BeginAt: "2024-02-05T08:00:00.000Z", EndAt: strPtr("2024-02-05T09:00:00.000Z"), Host: "c1r1p2"},
			},
			expectedKept:  1,
			expectedDrops: []session.DropReason{session.ReasonEndBeforeBegin},
			validate: func(t *testing.T, res session.Result) {
				assert.Equal(t, "c1r1p2", res.Sessions[0].Host)
				assert.Equal(t, 0, res.Dropped[0].Index)
			},
		},
		{
			name: "missing_and_invalid_begin_dropped",
			records: []models.Location{
				{BeginAt: "", EndAt: strPtr("2024-02-05T09:00:00.000Z")},
				{BeginAt: "yesterday", EndAt: strPtr("2024-02-05T09:00:00.000Z")},
			},
			expectedKept:  0,
			expectedDrops: []session.DropReason{session.ReasonMissingBegin, session.ReasonInvalidBegin},
		},
		{
			name: "invalid_end_dropped",
			records: []models.Location{
				{BeginAt: "2024-02-05T08:00:00.000Z", EndAt: strPtr("not-a-date")},
			},
			expectedKept:  0,
			expectedDrops: []session.DropReason{session.ReasonInvalidEnd},
		},
		{
			name: "begin_after_capture_dropped",
			records: []models.Location{
				{BeginAt: "2024-02-05T12:00:00.000Z", EndAt: nil},
			},
			expectedKept:  0,
			expectedDrops: []session.DropReason{session.ReasonBeginAfterCapture},
		},
		{
			name: "order_preserved",
			records: []models.Location{
				{BeginAt: "2024-02-05T10:00:00.000Z", EndAt: strPtr("2024-02-05T11:00:00.000Z"), Host: "b"},
				{BeginAt: "2024-02-05T08:00:00.000Z", EndAt: strPtr("2024-02-05T09:00:00.000Z"), Host: "a"},
				{BeginAt: "2024-02-04T08:00:00.000Z", EndAt: strPtr("2024-02-04T09:00:00.000Z"), Host: "c"},
			},
			expectedKept: 3,
			validate: func(t *testing.T, res session.Result) {
				assert.Equal(t, "b", res.Sessions[0].Host)
				assert.Equal(t, "a", res.Sessions[1].Host)
				assert.Equal(t, "c", res.Sessions[2].Host)
			},
		},
		{
			name: "non_utc_offset_normalized",
			records: []models.Location{
				{BeginAt: "2024-02-05T09:00:00+01:00", EndAt: strPtr("2024-02-05T10:00:00+01:00")},
			},
			expectedKept: 1,
			validate: func(t *testing.T, res session.Result) {
				assert.Equal(t, time.UTC, res.Sessions[0].Begin.Location())
				assert.Equal(t, 8, res.Sessions[0].Begin.Hour())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := test.NewNullLogger()

			res := session.Normalize(tt.records, capture, log)

			require.Len(t, res.Sessions, tt.expectedKept)
			require.Len(t, res.Dropped, len(tt.expectedDrops))
			for i, reason := range tt.expectedDrops {
				assert.Equal(t, reason, res.Dropped[i].Reason)
			}

			assert.Len(t, hook.AllEntries(), len(tt.expectedDrops))
			for _, entry := range hook.AllEntries() {
				assert.Equal(t, logrus.WarnLevel, entry.Level)
			}

			if tt.validate != nil {
				tt.validate(t, res)
			}
		})
	}
}

func TestNormalize_WrongTypedFields(t *testing.T) {
	capture := time.Date(2024, time.February, 5, 11, 15, 0, 0, time.UTC)
	log, hook := test.NewNullLogger()

	var records []models.Location
	require.NoError(t, json.Unmarshal([]byte(`[
		{"begin_at":"2024-02-05T08:00:00.000Z","end_at":"2024-02-05T09:00:00.000Z","host":"c1r1p1"},
		{"begin_at":12345,"end_at":null,"host":"c1r1p2"},
		{"begin_at":"2024-02-05T08:00:00.000Z","end_at":5,"host":"c1r1p3"},
		{"begin_at":"2024-02-05T08:00:00.000Z","end_at":null,"host":7},
		"c1r1p5"
	]`), &records))

	res := session.Normalize(records, capture, log)

	require.Len(t, res.Sessions, 1)
	assert.Equal(t, "c1r1p1", res.Sessions[0].Host)

	reasons := make([]session.DropReason, 0, len(res.Dropped))
	for _, d := range res.Dropped {
		reasons = append(reasons, d.Reason)
	}
	assert.Equal(t, []session.DropReason{
		session.ReasonInvalidBegin,
		session.ReasonInvalidEnd,
		session.ReasonInvalidRecord,
		session.ReasonInvalidRecord,
	}, reasons)
	assert.Len(t, hook.AllEntries(), 4)
}

func TestResult_Locations(t *testing.T) {
	capture := time.Date(2024, time.February, 5, 11, 15, 0, 0, time.UTC)
	log, _ := test.NewNullLogger()

	res := session.Normalize([]models.Location{
		{BeginAt: "2024-02-05T08:00:00.123456Z", EndAt: strPtr("2024-02-05T10:30:00Z"), Host: "c1r1p1"},
		{BeginAt: "2024-02-05T08:00:00.000Z", EndAt: strPtr("2024-02-05T07:00:00.000Z"), Host: "dropped"},
		{BeginAt: "2024-02-05T09:00:00.000Z", EndAt: nil, Host: "c2r4p7"},
		{BeginAt: "2024-02-05T09:30:00.000Z", EndAt: strPtr(""), Host: "c2r4p8"},
	}, capture, log)

	locs := res.Locations()
	require.Len(t, locs, 3)

	assert.Equal(t, "2024-02-05T08:00:00.123456Z", locs[0].BeginAt)
	require.NotNil(t, locs[0].EndAt)
	assert.Equal(t, "2024-02-05T10:30:00Z", *locs[0].EndAt)

	assert.Equal(t, "c2r4p7", locs[1].Host)
	assert.Nil(t, locs[1].EndAt)
	assert.Equal(t, "c2r4p8", locs[2].Host)
	assert.Nil(t, locs[2].EndAt)
}

func TestResult_LocationsEmptyIsNotNil(t *testing.T) {
	log, _ := test.NewNullLogger()
	locs := session.Normalize(nil, time.Now(), log).Locations()

	assert.NotNil(t, locs)
	assert.Empty(t, locs)

	assert.NotNil(t, session.Result{}.Locations())
}
