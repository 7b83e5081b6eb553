package types

import "context"

type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"

	HeaderRequestID = "X-Request-ID"
)

// SetRequestID returns a new context carrying the request id
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

// GetRequestID returns the request id from the context, if any
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxRequestID).(string); ok {
		return id
	}
	return ""
}
