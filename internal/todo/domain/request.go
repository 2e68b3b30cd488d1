package domain

import "context"

// RequestContext is the per-request authentication record built from the
// inbound headers before any resolver runs.
type RequestContext struct {
	// Identity is empty when no valid access token was presented.
	Identity string
	// RefreshToken is the raw refreshToken cookie, passed through unverified.
	RefreshToken string
}

// Authenticated reports whether a verified identity is attached.
func (rc *RequestContext) Authenticated() bool {
	return rc != nil && rc.Identity != ""
}

type requestContextKey struct{}

// WithRequestContext stores rc in ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// RequestContextFrom returns the RequestContext stored in ctx, or an empty one.
func RequestContextFrom(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestContextKey{}).(*RequestContext); ok && rc != nil {
		return rc
	}
	return &RequestContext{}
}
