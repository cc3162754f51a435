package ledgerclient

import "context"

type requestIDContextKey struct{}

// WithRequestID overrides the correlation ID attached to the next call
// made with ctx. Without an override the client generates one per call.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
