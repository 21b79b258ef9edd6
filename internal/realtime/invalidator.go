// internal/realtime/invalidator.go
package realtime

import (
	"context"
	"log/slog"
	"strings"

	redis_a "github.com/jaiswal09/medstock-be/internal/adapters/redis_adapter"
	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
)

// Invalidator maps change events to the cache groups they make stale and
// wipes those groups. Invalidation is deliberately coarse: deleting a whole
// prefix is idempotent and order-independent, so duplicated or reordered
// events can never leave a stale entry behind.
type Invalidator struct {
	cache  ports.CacheRepository
	logger *slog.Logger
}

// NewInvalidator creates a new cache invalidator
func NewInvalidator(cache ports.CacheRepository, logger *slog.Logger) *Invalidator {
	return &Invalidator{
		cache:  cache,
		logger: logger.With(slog.String("component", "invalidator")),
	}
}

// Handle implements Handler: it invalidates every cache group the event's
// type touches.
func (inv *Invalidator) Handle(ctx context.Context, env domain.Envelope) {
	groups := GroupsFor(env.Type)
	if len(groups) == 0 {
		return
	}

	for _, group := range groups {
		pattern := string(group) + ":*"
		if err := inv.cache.DeletePattern(ctx, pattern); err != nil {
			inv.logger.WarnContext(ctx, "cache invalidation failed",
				slog.String("pattern", pattern),
				slog.String("event_type", string(env.Type)),
				slog.String("error", err.Error()))
		}
	}

	inv.logger.DebugContext(ctx, "cache groups invalidated",
		slog.String("event_type", string(env.Type)),
		slog.Int("groups", len(groups)))
}

// GroupsFor returns the cache groups invalidated by an event type.
// Transactions and bills change stock, so they stale the inventory group
// too; bills additionally stale alerts because their cascade can cross
// alert thresholds.
func GroupsFor(t domain.EventType) []redis_a.CacheKeyPrefix {
	s := string(t)
	switch {
	case strings.HasPrefix(s, "inventory_"):
		return []redis_a.CacheKeyPrefix{
			redis_a.PrefixInventory, redis_a.PrefixDashboard,
		}
	case strings.HasPrefix(s, "transaction_"):
		return []redis_a.CacheKeyPrefix{
			redis_a.PrefixTxn, redis_a.PrefixInventory, redis_a.PrefixDashboard,
		}
	case strings.HasPrefix(s, "bill_"):
		return []redis_a.CacheKeyPrefix{
			redis_a.PrefixBill, redis_a.PrefixInventory,
			redis_a.PrefixAlert, redis_a.PrefixDashboard,
		}
	case strings.HasPrefix(s, "alert"):
		return []redis_a.CacheKeyPrefix{
			redis_a.PrefixAlert, redis_a.PrefixDashboard,
		}
	default:
		return nil
	}
}
