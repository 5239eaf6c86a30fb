package serial

import "context"

type tokenKey struct{}

// withToken tags ctx with the identity of one task execution.
func withToken(ctx context.Context, tok uint64) context.Context {
	return context.WithValue(ctx, tokenKey{}, tok)
}

// tokenFrom extracts the execution token carried by ctx, if any.
func tokenFrom(ctx context.Context) (uint64, bool) {
	if ctx == nil {
		return 0, false
	}
	tok, ok := ctx.Value(tokenKey{}).(uint64)
	return tok, ok
}
