package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"bikedash/internal/core"
	"bikedash/internal/services"
)

var (
	errNotLoaded     = errors.New("dataset not loaded")
	errRangeRequired = errors.New("start and end are required")
)

// rangeQuery pairs the requested range with the snapshot it applies to.
type rangeQuery struct {
	snap *core.Snapshot
	r    core.DateRange
}

// parseRange reads start and end from the query string or form. A missing
// bound defaults to the matching end of the dataset span.
func (s *Server) parseRange(r *http.Request) (rangeQuery, error) {
	snap := s.snapshots.Current()
	if snap == nil {
		return rangeQuery{}, errNotLoaded
	}

	span, hasSpan := services.DefaultRange(snap)
	q := rangeQuery{snap: snap, r: span}

	startRaw := strings.TrimSpace(r.FormValue("start"))
	endRaw := strings.TrimSpace(r.FormValue("end"))

	if startRaw != "" {
		d, err := core.ParseDate(startRaw)
		if err != nil {
			return rangeQuery{}, fmt.Errorf("invalid start date %q", startRaw)
		}
		q.r.Start = d
	} else if !hasSpan {
		return rangeQuery{}, errRangeRequired
	}

	if endRaw != "" {
		d, err := core.ParseDate(endRaw)
		if err != nil {
			return rangeQuery{}, fmt.Errorf("invalid end date %q", endRaw)
		}
		q.r.End = d
	} else if !hasSpan {
		return rangeQuery{}, errRangeRequired
	}

	if err := q.r.Validate(); err != nil {
		return rangeQuery{}, err
	}
	return q, nil
}

// rangeStatus maps a parseRange error to its HTTP status.
func rangeStatus(err error) int {
	if errors.Is(err, errNotLoaded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

// rangeMessage is the user-facing text for a parseRange error.
func rangeMessage(err error) string {
	if errors.Is(err, core.ErrInvalidRange) {
		return "invalid range: start is after end"
	}
	return err.Error()
}
