package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// WithSignal returns a context canceled on SIGINT or SIGTERM. The signal is
// recorded as the context's cause. The returned stop func releases the signal
// handler and cancels the context; call it once the context is no longer needed.
func WithSignal(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			cancel(fmt.Errorf("received signal %s", sig))
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel(context.Canceled)
	}
}
