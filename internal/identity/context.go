package identity

import "context"

type ctxKey string

const ctxClientKey ctxKey = "api_client"

// WithClient records which configured API key authenticated the request.
func WithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, ctxClientKey, client)
}

func Client(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxClientKey)
	client, ok := v.(string)
	return client, ok
}
