package server

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const dateOnlyLayout = "2006-01-02"

func parseOptionalSnowflakeID(value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed <= 0 {
		return nil, errors.New("invalid_snowflake_id")
	}
	return &parsed, nil
}

// parseOptionalDate accepts RFC3339 or YYYY-MM-DD and returns the UTC date.
func parseOptionalDate(value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		parsed, err = time.Parse(dateOnlyLayout, trimmed)
		if err != nil {
			return nil, errors.New("invalid_time")
		}
	}
	parsed = parsed.UTC()
	day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
	return &day, nil
}

// parseOptionalEnum returns nil for an empty value and rejects values
// valid does not accept.
func parseOptionalEnum[T ~string](value string, valid func(T) bool) (*T, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed := T(strings.ToLower(trimmed))
	if !valid(parsed) {
		return nil, errors.New("invalid_enum")
	}
	return &parsed, nil
}
