package logger

import "context"

// Field keys shared by every log line of an exchange.
const (
	KeyServer = "server"
	KeyXID    = "xid"
	KeyRound  = "round"
)

type contextKey struct{}

// LogContext carries the identity of one request/response exchange.
type LogContext struct {
	Server string
	XID    uint32
	Round  int
}

// WithContext returns a copy of ctx carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, contextKey{}, lc)
}

// FromContext returns the LogContext stored in ctx, or nil.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(contextKey{}).(*LogContext)
	return lc
}

func appendContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	out := make([]any, 0, 6+len(args))
	if lc.Server != "" {
		out = append(out, KeyServer, lc.Server)
	}
	out = append(out, KeyXID, lc.XID)
	if lc.Round > 0 {
		out = append(out, KeyRound, lc.Round)
	}
	return append(out, args...)
}
