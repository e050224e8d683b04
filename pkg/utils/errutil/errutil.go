package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/utils/logging"
)

func logAttrs(err error) []any {
	attrs := []any{"error", err.Error()}

	var ge *goerr.Error
	if errors.As(err, &ge) {
		attrs = append(attrs,
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	}
	return attrs
}

// Report sends err to Sentry when a client is configured
func Report(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}

	hub = hub.Clone()
	var ge *goerr.Error
	if errors.As(err, &ge) {
		hub.ConfigureScope(func(scope *sentry.Scope) {
			for k, v := range ge.Values() {
				scope.SetExtra(k, v)
			}
		})
	}

	if evID := hub.CaptureException(err); evID != nil {
		logging.From(ctx).Info("error reported to sentry", slog.Any("event_id", *evID))
	}
}

// Handle logs the error with a message, reports it and returns it unchanged
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logging.From(ctx).Error(msg, logAttrs(err)...)
	Report(ctx, err)

	return err
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleHTTP logs the error and writes a JSON error response. Server errors
// are also reported to Sentry.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	logger := logging.From(ctx)
	attrs := append([]any{"status", statusCode}, logAttrs(err)...)
	if statusCode >= http.StatusInternalServerError {
		logger.Error("HTTP error", attrs...)
		Report(ctx, err)
	} else {
		logger.Warn("HTTP error", attrs...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: err.Error()}); err != nil {
		logger.Error("failed to write error response", "error", err.Error())
	}
}
