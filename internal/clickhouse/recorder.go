package clickhouse

import (
	"context"

	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/logger"
	"github.com/Billy-Davies-2/fpl-draft-ledger/internal/pubsub"
)

// Record writes every event from events to sink until ctx is done or the
// channel closes. Write failures are logged and skipped.
func Record(ctx context.Context, sink Sink, events <-chan pubsub.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := sink.RecordEvent(ctx, e); err != nil {
				logger.Error("failed to record draft event", "error", err, "type", e.Type)
				continue
			}
			logger.Debug("draft event recorded", "type", e.Type)
		}
	}
}
