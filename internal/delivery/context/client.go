package context

import "context"

const (
	// KeyClientInfo is the key for storing the caller's network identity in context.
	KeyClientInfo ContextKey = "client_info"
)

// ClientInfo describes the caller of the current request.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// WithClientInfo returns a new context with the client info.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, KeyClientInfo, info)
}

// GetClientInfo extracts the client info from context.Context.
// If not found, returns the zero value.
func GetClientInfo(ctx context.Context) ClientInfo {
	if info, ok := ctx.Value(KeyClientInfo).(ClientInfo); ok {
		return info
	}

	return ClientInfo{}
}
