package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/neuro86/neuro86/pkg/utils/logging"
)

// Dispatch executes a handler function asynchronously in a new goroutine.
// It creates a background context (so the handler survives the request that
// spawned it) and handles errors and panics.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	// Preserve the logger but detach from the request lifecycle
	bgCtx := logging.With(context.Background(), logging.From(ctx))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logging.From(bgCtx).Error("async handler failed", "error", goerr.Unwrap(err))
		}
	}()
}
