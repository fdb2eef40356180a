package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const callerKey contextKey = "caller"

func setCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// GetCaller returns the authenticated caller's address.
func GetCaller(r *http.Request) (string, bool) {
	caller, ok := r.Context().Value(callerKey).(string)
	return caller, ok
}
