package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx retrieves the logger from the context.
// If no logger is found, the global logger is returned.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}

// WithObject scopes the context logger to one stored object, so every log
// line written further down the pipeline carries its bucket and key.
func WithObject(ctx context.Context, bucket, key string) context.Context {
	l := Ctx(ctx).With().
		Str(FieldBucket, bucket).
		Str(FieldKey, key).
		Logger()
	return WithLogger(ctx, l)
}
