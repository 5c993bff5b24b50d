package logging

import (
	"context"

	"github.com/samber/oops"
)

// LogError logs err at error level. For oops errors the code and context map
// are added as attributes.
func LogError(ctx context.Context, logger Logger, msg string, err error) {
	logger.Error(ctx, msg, ErrorAttrs(err)...)
}

// LogWarn is LogError at warn level, for failures the caller already handled.
func LogWarn(ctx context.Context, logger Logger, msg string, err error) {
	logger.Warn(ctx, msg, ErrorAttrs(err)...)
}

// ErrorAttrs flattens err into key-value pairs.
func ErrorAttrs(err error) []any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return []any{"error", err}
	}

	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil && code != "" {
		attrs = append(attrs, "code", code)
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		attrs = append(attrs, "context", ctx)
	}
	return attrs
}
