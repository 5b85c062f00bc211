package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/casemellow/chatbot/engine/catalog"
	"github.com/casemellow/chatbot/pkg/natsutil"
	"github.com/nats-io/nats.go"
)

const (
	// UpdateSubject carries single-record catalog updates from the storefront.
	UpdateSubject = "catalog.updates"
	// DLQSubject receives updates that could not be applied.
	DLQSubject = "catalog.updates.dlq"
)

// UpdateEvent is a single-record re-ingestion request. Index must be the
// record's position in the source dataset so the existing entry is
// overwritten, not duplicated.
type UpdateEvent struct {
	Kind    catalog.Kind     `json:"kind"`
	Index   int              `json:"index"`
	Product *catalog.Product `json:"product,omitempty"`
	FAQ     *catalog.FAQ     `json:"faq,omitempty"`
}

// dlqEvent wraps a failed update with its error for the dead letter queue.
type dlqEvent struct {
	Event UpdateEvent `json:"event"`
	Error string      `json:"error"`
}

// Apply re-embeds and upserts the single record carried by an event.
func (p *Pipeline) Apply(ctx context.Context, ev UpdateEvent) error {
	switch ev.Kind {
	case catalog.KindProducts:
		if ev.Product == nil {
			return fmt.Errorf("ingest: update event missing product")
		}
		return p.UpsertProduct(ctx, ev.Index, *ev.Product)
	case catalog.KindFAQs:
		if ev.FAQ == nil {
			return fmt.Errorf("ingest: update event missing faq")
		}
		return p.UpsertFAQ(ctx, ev.Index, *ev.FAQ)
	default:
		return fmt.Errorf("ingest: unknown update kind %q", ev.Kind)
	}
}

// StartConsumer subscribes to catalog update events and applies each one
// through the pipeline. Failed events are published to the DLQ so an
// operator can replay them; the subscription itself never stops on a bad
// message. There is no coordination with concurrent queries beyond the
// store's own upsert consistency.
func StartConsumer(nc *nats.Conn, p *Pipeline, log *slog.Logger) (*nats.Subscription, error) {
	if log == nil {
		log = slog.Default()
	}
	return natsutil.Subscribe(nc, UpdateSubject, func(ctx context.Context, ev UpdateEvent) {
		if err := p.Apply(ctx, ev); err != nil {
			log.Error("ingest: update failed", "kind", ev.Kind, "index", ev.Index, "error", err)
			dlq := dlqEvent{Event: ev, Error: err.Error()}
			if perr := natsutil.Publish(ctx, nc, DLQSubject, dlq); perr != nil {
				log.Error("ingest: DLQ publish failed", "error", perr)
			}
			return
		}
		log.Info("ingest: update applied", "kind", ev.Kind, "index", ev.Index)
	})
}
