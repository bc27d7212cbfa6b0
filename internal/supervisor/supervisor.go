// Package supervisor launches one worker per configured server and
// terminates the group on the first unexpected failure (spec §4.6).
package supervisor

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run launches one goroutine per entry in sessions via a shared
// errgroup.Group derived from ctx; the first session to return a non-nil
// error cancels the others. Run returns that first error, or nil if ctx
// was cancelled (whatever the sessions returned) or every session
// returned nil.
func Run(ctx context.Context, sessions []func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, session := range sessions {
		session := session
		g.Go(func() error {
			return session(gctx)
		})
	}
	err := g.Wait()
	if ctx.Err() != nil {
		// The root was cancelled: every session error from here on is
		// expected shutdown noise, not a failure cause.
		return nil
	}
	return err
}
