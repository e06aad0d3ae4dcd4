package core

import "context"

type contextKey string

const ctxKeyClient contextKey = "client"

// Client identifies who submitted a file. It is recorded with each run.
type Client struct {
	IPAddress string
	UserAgent string
	APIKeyID  string
}

// ContextWithClient attaches client details to ctx for run recording.
func ContextWithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, ctxKeyClient, c)
}

// ClientFromContext returns the client stored by ContextWithClient, or the
// zero Client.
func ClientFromContext(ctx context.Context) Client {
	if c, ok := ctx.Value(ctxKeyClient).(Client); ok {
		return c
	}
	return Client{}
}
