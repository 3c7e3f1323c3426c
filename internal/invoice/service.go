package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/andersonmelo18/Financeiro/internal/cache"
	"github.com/andersonmelo18/Financeiro/internal/core"
)

// SnapshotSource loads the raw records one aggregation pass needs.
type SnapshotSource interface {
	InvoiceSnapshot(ctx context.Context, userID string, target core.YearMonth) (Snapshot, error)
}

// Service wraps the aggregator with a snapshot cache. Aggregations are
// recomputed on demand and invalidated when the underlying data
// changes.
type Service struct {
	source SnapshotSource
	agg    *Aggregator
	cache  cache.SnapshotCache
}

func NewService(source SnapshotSource, paid PaidStatusSource, c cache.SnapshotCache) *Service {
	return &Service{
		source: source,
		agg:    NewAggregator(paid),
		cache:  c,
	}
}

func cacheKey(userID string, ym core.YearMonth) string {
	return "invoice:" + userID + ":" + ym.String()
}

// Invoices returns every card's invoice for the target month, from
// cache when possible.
func (s *Service) Invoices(ctx context.Context, userID string, target core.YearMonth) (map[string]*CardInvoice, error) {
	key := cacheKey(userID, target)
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var cached map[string]*CardInvoice
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				slog.DebugContext(ctx, "Invoice cache hit", "user_id", userID, "month", target.String())
				return cached, nil
			}
			slog.WarnContext(ctx, "Discarding undecodable invoice cache entry", "key", key)
		}
	}

	snap, err := s.source.InvoiceSnapshot(ctx, userID, target)
	if err != nil {
		return nil, fmt.Errorf("load invoice snapshot: %w", err)
	}

	result, err := s.agg.Aggregate(ctx, userID, target, snap)
	if err != nil {
		return nil, fmt.Errorf("aggregate invoices: %w", err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, key, string(raw)); err != nil {
				slog.WarnContext(ctx, "Failed to cache invoices", "key", key, "error", err)
			}
		}
	}
	return result, nil
}

// Invalidate drops cached aggregations around the changed month. The
// roll-forward rule couples each invoice to its neighbors, so the
// adjacent months are dropped too.
func (s *Service) Invalidate(ctx context.Context, userID string, ym core.YearMonth) {
	if s.cache == nil {
		return
	}
	for _, m := range []core.YearMonth{ym.Prev(), ym, ym.Next()} {
		if err := s.cache.Delete(ctx, cacheKey(userID, m)); err != nil {
			slog.WarnContext(ctx, "Failed to invalidate invoice cache", "month", m.String(), "error", err)
		}
	}
}
