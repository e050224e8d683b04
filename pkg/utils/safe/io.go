package safe

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/secmon-lab/riskassess/pkg/utils/logging"
)

// Close closes closer and logs a failure. A nil closer is ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close",
			slog.String("target", fmt.Sprintf("%T", closer)),
			slog.Any("error", err),
		)
	}
}

// Write writes data to w and logs a failure. Used for response bodies whose
// headers are already committed.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Error("Failed to write",
			slog.Int("size", len(data)),
			slog.Any("error", err),
		)
	}
}
