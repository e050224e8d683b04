package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/utils/errutil"
	"github.com/secmon-lab/riskassess/pkg/utils/logging"
)

// Dispatch runs handler in a new goroutine. The handler context keeps the
// values of ctx, such as the logger and Sentry hub, but not its cancellation.
// Errors and panics are logged and reported.
func Dispatch(ctx context.Context, task string, handler func(ctx context.Context) error) {
	bgCtx := context.WithoutCancel(ctx)
	bgCtx = logging.With(bgCtx, logging.From(ctx).With("task", task))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				err := goerr.New("panic in async task", goerr.V("task", task), goerr.V("panic", r))
				_ = errutil.Handle(bgCtx, err, "async task panicked")
			}
		}()

		if err := handler(bgCtx); err != nil {
			_ = errutil.Handle(bgCtx, goerr.Wrap(err, "async task failed", goerr.V("task", task)), "async task failed")
		}
	}()
}
