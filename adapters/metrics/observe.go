package metrics

import (
	"context"
	"strings"

	"github.com/artpar/newsdemo/core/events"
)

// Observe subscribes the collector to query cache and config events.
func (c *Collector) Observe(bus *events.Bus) {
	bus.Subscribe("query.*", func(ctx context.Context, e events.Event) error {
		label := QueryLabel(e.Key)
		switch e.Name {
		case events.QueryHit:
			c.QueryHits.WithLabelValues(label).Inc()
		case events.QueryFetched:
			c.QueryFetches.WithLabelValues(label).Inc()
		case events.QueryCoalesced:
			c.QueryCoalesced.WithLabelValues(label).Inc()
		case events.QueryFailed:
			c.QueryFetches.WithLabelValues(label).Inc()
			c.QueryErrors.WithLabelValues(label).Inc()
		case events.QueryInvalidated:
			c.QueryInvalidations.WithLabelValues(label).Inc()
		}
		return nil
	})

	bus.Subscribe(events.ConfigReloaded, func(ctx context.Context, e events.Event) error {
		if e.Err != nil {
			c.ConfigReloadErrors.Inc()
			return nil
		}
		c.ConfigReloads.Inc()
		c.ConfigLastReload.SetToCurrentTime()
		return nil
	})
}

// QueryLabel keeps the first two key segments so per-item keys share a label.
// e.g. news.item.42 -> news.item
func QueryLabel(key string) string {
	parts := strings.SplitN(key, ".", 3)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, ".")
}
