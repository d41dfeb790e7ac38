// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for decoding request bodies and query
// strings into core inputs, reporting every problem as an InvalidArgument.

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
	"time"

	"budge/internal/core"
)

const maxBodyBytes = 1 << 20

const msgInvalidAmount = "amount must be a valid non-negative number"

// decodeJSON reads a single JSON document from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)

	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return core.E(core.InvalidArgument, "request body must contain a single JSON object")
	}
	return nil
}

func decodeError(err error) error {
	var (
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
		maxBytesErr *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return core.E(core.InvalidArgument, "request body is required")
	case errors.Is(err, core.ErrInvalidAmount):
		return core.Wrap(core.InvalidArgument, msgInvalidAmount, err)
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return core.Wrap(core.InvalidArgument, "invalid JSON body", err)
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			return core.Wrap(core.InvalidArgument, "invalid JSON body", err)
		}
		return core.Wrap(core.InvalidArgument, fmt.Sprintf("invalid value for field %q", field), err)
	case errors.As(err, &maxBytesErr):
		return core.Wrap(core.InvalidArgument, "request body too large", err)
	default:
		// Custom unmarshalers (dates) report user-facing messages.
		return core.Invalid(err)
	}
}

// parseDateParam parses an optional YYYY-MM-DD query parameter.
func parseDateParam(q url.Values, name string) (*core.Date, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, core.Wrap(core.InvalidArgument, fmt.Sprintf("invalid %s, expected YYYY-MM-DD", name), err)
	}
	return &d, nil
}

// parsePeriodQuery resolves the startDate/endDate query pair against now.
// The default month is taken from the UTC calendar, like stored dates.
func parsePeriodQuery(q url.Values, now time.Time) (core.Period, error) {
	start, err := parseDateParam(q, "startDate")
	if err != nil {
		return core.Period{}, err
	}
	end, err := parseDateParam(q, "endDate")
	if err != nil {
		return core.Period{}, err
	}
	period := core.ResolvePeriod(now.UTC(), start, end)
	if err := period.Validate(); err != nil {
		return core.Period{}, core.Invalid(err)
	}
	return period, nil
}

// parseTransactionFilter reads page, limit, type, category, startDate and
// endDate. Unknown type values are ignored rather than rejected.
func parseTransactionFilter(q url.Values) (core.TransactionFilter, error) {
	var f core.TransactionFilter
	var err error

	if f.Page, err = parsePositiveInt(q, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = parsePositiveInt(q, "limit"); err != nil {
		return f, err
	}

	if t := core.TransactionType(strings.TrimSpace(q.Get("type"))); t.Valid() {
		f.Type = t
	}
	f.CategoryID = strings.TrimSpace(q.Get("category"))

	if f.Start, err = parseDateParam(q, "startDate"); err != nil {
		return f, err
	}
	if f.End, err = parseDateParam(q, "endDate"); err != nil {
		return f, err
	}
	return f, nil
}

func parsePositiveInt(q url.Values, name string) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, core.E(core.InvalidArgument, fmt.Sprintf("%s must be a positive integer", name))
	}
	return n, nil
}
