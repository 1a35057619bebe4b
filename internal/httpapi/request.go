package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-chi/chi/v5"

	"todoManagement/internal/apperr"
	"todoManagement/repository"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into v. An empty body decodes to the zero value.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation(map[string]string{"body": "invalid JSON: " + err.Error()})
	}
	return nil
}

// validationError converts ozzo-validation output into an apperr validation error.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		fields := make(map[string]string, len(errs))
		for f, fe := range errs {
			if fe != nil {
				fields[f] = fe.Error()
			}
		}
		return apperr.Validation(fields)
	}
	return apperr.Internal(err)
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(map[string]string{"id": "must be a positive integer"})
	}
	return id, nil
}

// query collects query-string parse failures so they are reported together.
type query struct {
	values map[string][]string
	errs   map[string]string
}

func newQuery(r *http.Request) *query {
	return &query{values: r.URL.Query(), errs: map[string]string{}}
}

func (q *query) get(key string) string {
	return strings.TrimSpace(strings.Join(q.values[key], ""))
}

func (q *query) intRange(key string, def, min, max int) int {
	raw := q.get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.errs[key] = "must be an integer"
		return def
	}
	if n < min || n > max {
		q.errs[key] = "must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max)
		return def
	}
	return n
}

func (q *query) optBool(key string) *bool {
	raw := q.get(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.errs[key] = "must be a boolean"
		return nil
	}
	return &b
}

func (q *query) optInt64(key string) *int64 {
	raw := q.get(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		q.errs[key] = "must be an integer"
		return nil
	}
	return &n
}

// page reads skip (>= 0) and limit (1..100, default 10).
func (q *query) page() (skip, limit int) {
	const maxInt = int(^uint(0) >> 1)
	return q.intRange("skip", 0, 0, maxInt), q.intRange("limit", 10, 1, 100)
}

func (q *query) err() error {
	if len(q.errs) == 0 {
		return nil
	}
	return apperr.Validation(q.errs)
}

// storeError maps repository errors onto the taxonomy.
func storeError(err error, duplicateMsg string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperr.Conflict(duplicateMsg)
	}
	return apperr.Internal(err)
}

// gone maps a row that vanished between read and write to a not-found error.
func gone(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(msg)
	}
	return err
}
