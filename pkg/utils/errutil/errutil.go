package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"

	"github.com/neuro86/neuro86/pkg/utils/logging"
)

// Handle logs the error with a message and returns it unchanged. Server-side
// failures are also reported to Sentry when it is configured.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}

	sentry.CaptureException(err)

	return err
}

// HandleHTTP logs the error and writes a JSON error envelope with the given
// status code. 5xx errors are reported to Sentry; the response body carries a
// generic message for them so internals never leak to the caller.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
		)
	}

	message := err.Error()
	if statusCode >= http.StatusInternalServerError {
		sentry.CaptureException(err)
		message = http.StatusText(statusCode)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp := map[string]string{"error": message}
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		logger.Error("failed to write error response", "error", encodeErr.Error())
	}
}
