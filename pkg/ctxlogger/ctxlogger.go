package ctxlogger

import (
	"context"
	"log/slog"
)

type ctxKey string

const slogAttrsKey ctxKey = "slog_attrs"

// AppendCtx returns a context carrying attr in addition to any attrs
// already attached by previous calls.
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	if attrs, ok := parent.Value(slogAttrsKey).([]slog.Attr); ok {
		newAttrs := make([]slog.Attr, len(attrs), len(attrs)+1)
		copy(newAttrs, attrs)
		return context.WithValue(parent, slogAttrsKey, append(newAttrs, attr))
	}

	return context.WithValue(parent, slogAttrsKey, []slog.Attr{attr})
}

// ContextHandler adds the attrs attached to the record's context by
// AppendCtx to every record it handles.
type ContextHandler struct {
	slog.Handler
}

func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(slogAttrsKey).([]slog.Attr); ok {
		for _, a := range attrs {
			r.AddAttrs(a)
		}
	}

	return h.Handler.Handle(ctx, r)
}
