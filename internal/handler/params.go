package handler

import (
	"net/url"
	"strconv"
	"time"
)

const maxPageSize = 100

// parseTimeParam accepts RFC 3339 timestamps or bare dates; a bare date
// means midnight UTC of that day.
func parseTimeParam(raw, field string, fields *[]FieldError) *time.Time {
	if raw == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts
	}
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return &ts
	}
	*fields = append(*fields, FieldError{Field: field, Message: "must be an RFC 3339 timestamp or YYYY-MM-DD date"})
	return nil
}

func parsePageParams(q url.Values, defaultLimit int, fields *[]FieldError) (limit, offset int) {
	limit = defaultLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageSize {
			*fields = append(*fields, FieldError{Field: "limit", Message: "must be between 1 and 100"})
		} else {
			limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			*fields = append(*fields, FieldError{Field: "offset", Message: "must be 0 or greater"})
		} else {
			offset = n
		}
	}
	return limit, offset
}
