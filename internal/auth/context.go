package auth

import (
	"context"
)

type contextKey string

const operatorKey contextKey = "operator"

// SetOperator sets the authenticated operator name in the context.
func SetOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey, operator)
}

// GetOperator retrieves the authenticated operator name from the context.
func GetOperator(ctx context.Context) (string, bool) {
	operator, ok := ctx.Value(operatorKey).(string)
	return operator, ok
}
