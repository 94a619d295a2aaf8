package httpapi

import "context"

// serverBaseCtx is canceled when the daemon begins shutting down, so
// in-flight grades stop at the next boundary even if the client hangs on.
var serverBaseCtx = context.Background()

// SetBaseContext installs the process-level context joined into every
// handler's request context. Passing nil resets to Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context canceled as soon as either parent is done.
// The cancel func must be called when the handler returns or the watcher
// goroutine leaks.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		select {
		case <-a.Done():
		case <-b.Done():
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
