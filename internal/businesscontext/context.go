// Package businesscontext carries the acting business and user through a
// request.
package businesscontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type businessKey struct{}

type userKey struct{}

// WithBusinessID stores the business ID in the context.
func WithBusinessID(ctx context.Context, businessID snowflake.ID) context.Context {
	return context.WithValue(ctx, businessKey{}, businessID)
}

// WithUserID stores the acting user ID in the context.
func WithUserID(ctx context.Context, userID snowflake.ID) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// BusinessIDFromContext returns the business ID from context, if set.
func BusinessIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	return idFromContext(ctx, businessKey{})
}

// UserIDFromContext returns the user ID from context, if set.
func UserIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	return idFromContext(ctx, userKey{})
}

// ParseID accepts a decimal snowflake ID, rejecting zero and negatives.
func ParseID(raw string) (snowflake.ID, bool) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}

func idFromContext(ctx context.Context, key any) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	switch typed := ctx.Value(key).(type) {
	case snowflake.ID:
		return typed, typed > 0
	case int64:
		return snowflake.ID(typed), typed > 0
	case string:
		return ParseID(typed)
	}
	return 0, false
}
