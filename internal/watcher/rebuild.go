package watcher

import (
	"context"
	"log/slog"
)

// RebuildFunc rebuilds the index. A config change asks the callee to reload
// its configuration first.
type RebuildFunc func(ctx context.Context, configChanged bool) error

// Run calls rebuild once per batch from events until ctx is done or the
// channel closes. Batches that queue up while a rebuild runs are folded
// into the next rebuild. Rebuild errors are logged and do not stop Run.
func Run(ctx context.Context, events <-chan []FileEvent, rebuild RebuildFunc, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	for {
		var batch []FileEvent
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-events:
			if !ok {
				return nil
			}
			batch = b
		}

	drain:
		for {
			select {
			case b, ok := <-events:
				if !ok {
					break drain
				}
				batch = append(batch, b...)
			default:
				break drain
			}
		}

		configChanged := false
		for _, e := range batch {
			if e.Operation == OpConfigChange {
				configChanged = true
			}
			logger.Debug("watch_event", slog.String("path", e.Path), slog.String("op", e.Operation.String()))
		}

		logger.Info("watch_rebuild",
			slog.Int("events", len(batch)),
			slog.Bool("config_changed", configChanged))
		if err := rebuild(ctx, configChanged); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("watch_rebuild_failed", slog.String("error", err.Error()))
		}
	}
}
