// Package session turns raw upstream location records into the validated
// sessions consumed by the logtime engine. It is the only place that knows
// the wire shape of a location.
package session

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arnaudderison/logtime19/internal/logtime"
	"github.com/arnaudderison/logtime19/internal/models"
)

// DropReason explains why a record was discarded.
type DropReason string

const (
	// ReasonMissingBegin marks a record without begin_at.
	ReasonMissingBegin DropReason = "missing_begin"
	// ReasonInvalidBegin marks a record whose begin_at does not parse.
	ReasonInvalidBegin DropReason = "invalid_begin"
	// ReasonInvalidEnd marks a record whose end_at is present but does not parse.
	ReasonInvalidEnd DropReason = "invalid_end"
	// ReasonEndBeforeBegin marks a record ending before it starts.
	ReasonEndBeforeBegin DropReason = "end_before_begin"
	// ReasonBeginAfterCapture marks a record starting after the capture time.
	ReasonBeginAfterCapture DropReason = "begin_after_capture"
	// ReasonInvalidRecord marks an element that is not a location object or
	// whose host is not a string.
	ReasonInvalidRecord DropReason = "invalid_record"
)

// Drop describes one discarded record.
type Drop struct {
	Index  int
	Reason DropReason
	Record models.Location
}

// Result holds the sessions kept by Normalize, in input order, and the
// records it discarded.
type Result struct {
	Sessions []logtime.Session
	Dropped  []Drop

	kept []models.Location
}

// Normalize validates records and converts them to sessions.
//
// Absent, null or empty end_at marks an open session whose end is set to
// captureTime. Records with a missing or unparseable begin_at, an
// unparseable end_at, an end before the begin, or a begin after
// captureTime are dropped and logged as malformed, as are records whose
// fields did not decode. Hosts are kept verbatim.
func Normalize(records []models.Location, captureTime time.Time, log logrus.FieldLogger) Result {
	result := Result{
		Sessions: make([]logtime.Session, 0, len(records)),
		kept:     make([]models.Location, 0, len(records)),
	}

	for i, rec := range records {
		s, reason := normalizeOne(rec, captureTime)
		if reason != "" {
			result.Dropped = append(result.Dropped, Drop{Index: i, Reason: reason, Record: rec})
			log.WithFields(logrus.Fields{
				"index":    i,
				"reason":   reason,
				"begin_at": rec.BeginAt,
				"end_at":   endAtField(rec.EndAt),
				"host":     rec.Host,
				"field":    rec.Malformed,
			}).Warn("Dropping malformed session record")
			continue
		}
		result.Sessions = append(result.Sessions, s)
		result.kept = append(result.kept, keptRecord(rec, s))
	}

	return result
}

func normalizeOne(rec models.Location, captureTime time.Time) (logtime.Session, DropReason) {
	switch rec.Malformed {
	case "":
	case models.FieldBeginAt:
		return logtime.Session{}, ReasonInvalidBegin
	case models.FieldEndAt:
		return logtime.Session{}, ReasonInvalidEnd
	default:
		return logtime.Session{}, ReasonInvalidRecord
	}

	if rec.BeginAt == "" {
		return logtime.Session{}, ReasonMissingBegin
	}
	begin, err := parseTimestamp(rec.BeginAt)
	if err != nil {
		return logtime.Session{}, ReasonInvalidBegin
	}
	if begin.After(captureTime) {
		return logtime.Session{}, ReasonBeginAfterCapture
	}

	s := logtime.Session{Begin: begin, Host: rec.Host}

	if rec.EndAt == nil || *rec.EndAt == "" {
		s.End = captureTime
		s.Open = true
		return s, ""
	}

	end, err := parseTimestamp(*rec.EndAt)
	if err != nil {
		return logtime.Session{}, ReasonInvalidEnd
	}
	if end.Before(begin) {
		return logtime.Session{}, ReasonEndBeforeBegin
	}
	s.End = end
	return s, ""
}

func endAtField(endAt *string) string {
	if endAt == nil {
		return "null"
	}
	return *endAt
}

// parseTimestamp accepts RFC 3339 with or without fractional seconds and
// returns the instant in UTC.
func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// keptRecord is the record as received, with an empty end_at turned into
// null for open sessions.
func keptRecord(rec models.Location, s logtime.Session) models.Location {
	out := models.Location{BeginAt: rec.BeginAt, Host: rec.Host}
	if !s.Open {
		end := *rec.EndAt
		out.EndAt = &end
	}
	return out
}

// Locations returns the kept records in the wire shape, in input order,
// with their timestamps exactly as received. Open sessions have a null
// end_at. The result is never nil.
func (r Result) Locations() []models.Location {
	out := make([]models.Location, len(r.kept))
	copy(out, r.kept)
	return out
}
