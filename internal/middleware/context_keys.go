package middleware

import (
	"context"

	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
)

// contextKey is a private type for context keys set by middleware.
// Using a custom type prevents collisions.
type contextKey string

const (
	loggerKey      = contextKey("logger")
	environmentKey = contextKey("environment")
)

// GetEnvironmentFromCtx retrieves the request's environment scope. The zero
// value (legacy) is returned when no environment header was supplied.
func GetEnvironmentFromCtx(ctx context.Context) domain.Environment {
	envVal := ctx.Value(environmentKey)
	if envVal == nil {
		return domain.EnvironmentLegacy
	}
	env, ok := envVal.(domain.Environment)
	if !ok {
		return domain.EnvironmentLegacy
	}
	return env
}
