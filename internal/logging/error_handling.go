package logging

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/mideind/straeto/internal/feed"
)

// SafeCloseWithLogging closes a resource and logs any errors that occur
func SafeCloseWithLogging(closer io.Closer, logger *slog.Logger, operation string) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		LogError(logger, "failed to close resource", err,
			slog.String("operation", operation),
			slog.String("component", "resource_management"))
	}
}

// HandleDeferredError runs a deferred operation and, if it fails while the
// caller succeeded, replaces the caller's nil error with the failure.
func HandleDeferredError(originalErr *error, deferredOp func() error, logger *slog.Logger, operation string) {
	if deferredOp == nil {
		return
	}

	if err := deferredOp(); err != nil {
		LogError(logger, "deferred operation failed", err,
			slog.String("operation", operation),
			slog.String("component", "deferred_cleanup"))

		if *originalErr == nil {
			*originalErr = fmt.Errorf("%s failed: %w", operation, err)
		}
	}
}

// LogLoadStats reports the rows a feed load kept and dropped. Tables with
// dropped rows are logged at warning level.
func LogLoadStats(logger *slog.Logger, stats feed.LoadStats) {
	if logger == nil {
		return
	}

	names := make([]string, 0, len(stats.Tables))
	for name := range stats.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t := stats.Tables[name]
		attrs := []any{
			slog.String("table", name),
			slog.Int("rows", t.Rows),
			slog.Int("skipped", t.Skipped),
			slog.Int("malformed", t.Malformed),
		}
		if t.Skipped+t.Malformed > 0 {
			logger.Warn("feed_table_rows_dropped", attrs...)
			continue
		}
		logger.Debug("feed_table_loaded", attrs...)
	}

	LogOperation(logger, "feed_references_resolved",
		slog.Int("duplicate_stops", stats.DuplicateStops),
		slog.Int("duplicate_trips", stats.DuplicateTrips),
		slog.Int("orphan_trips", stats.OrphanTrips),
		slog.Int("orphan_stop_times", stats.OrphanStopTimes),
		slog.Int("dropped_total", stats.Dropped()))
}
