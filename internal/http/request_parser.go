// Package http provides the JSON API server and its handlers.
//
// This file implements the helpers that turn query strings and request
// bodies into domain values.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"taskfin/internal/core"
)

const maxBodyBytes = 1 << 20

// requestError is a malformed request. It maps to 400.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a single JSON object from the body into v. Unknown
// fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &maxErr):
			return badRequest("request body exceeds %d bytes", maxErr.Limit)
		case core.IsValidation(err):
			return err
		}
		return badRequest("invalid JSON: %v", err)
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// ParseFilterSpec reads a FilterSpec from query parameters:
//
//	status=all|pending|completed   owner=<list or account id>
//	kind=<priority or type>        tags=a,b (repeatable)
//	range=today|week|overdue       search=<text>
//	sort=<key>                     order=asc|desc
//
// list_id and account_id are accepted as aliases of owner.
func ParseFilterSpec(query url.Values) (core.FilterSpec, error) {
	spec := core.FilterSpec{
		Status:    core.StatusFilter(query.Get("status")),
		Owner:     firstNonEmpty(query.Get("owner"), query.Get("list_id"), query.Get("account_id")),
		Kind:      firstNonEmpty(query.Get("kind"), query.Get("priority"), query.Get("type")),
		DateRange: core.DateRange(query.Get("range")),
		Search:    sanitizeInput(firstNonEmpty(query.Get("search"), query.Get("q"))),
		SortKey:   core.SortKey(query.Get("sort")),
		SortOrder: core.SortOrder(query.Get("order")),
	}
	for _, v := range query["tags"] {
		spec.Tags = append(spec.Tags, strings.Split(v, ",")...)
	}
	spec = spec.Normalize()
	if err := spec.Validate(); err != nil {
		return core.FilterSpec{}, err
	}
	return spec, nil
}

// ParseMonthParams reads year and month, defaulting to today's.
func ParseMonthParams(query url.Values, today core.Date) (year, month int, err error) {
	year, month = today.Year(), today.Month()
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if year, err = strconv.Atoi(v); err != nil || year < 1 || year > 9999 {
			return 0, 0, &core.ValidationError{Field: "year", Err: fmt.Errorf("invalid year %q", v)}
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if month, err = strconv.Atoi(v); err != nil || month < 1 || month > 12 {
			return 0, 0, &core.ValidationError{Field: "month", Err: fmt.Errorf("invalid month %q", v)}
		}
	}
	return year, month, nil
}

// ParseYearMonth reads a "YYYY-MM" parameter, defaulting to today's month.
func ParseYearMonth(query url.Values, key string, today core.Date) (string, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return today.YearMonth(), nil
	}
	y, m, err := core.ParseYearMonth(v)
	if err != nil {
		return "", &core.ValidationError{Field: key, Err: err}
	}
	return core.YearMonthOf(y, m), nil
}

// ParseIntParam reads an integer parameter within [min, max].
func ParseIntParam(query url.Values, key string, def, min, max int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return 0, &core.ValidationError{Field: key, Err: fmt.Errorf("must be an integer between %d and %d", min, max)}
	}
	return n, nil
}

// sanitizeInput drops control characters except tab and newlines and trims
// whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
