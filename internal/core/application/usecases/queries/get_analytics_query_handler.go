package queries

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/metrics"

	"go.uber.org/zap"
)

// DefaultAnalyticsTTL is how long a computed view is served from cache.
const DefaultAnalyticsTTL = time.Minute

// Cache lookup results used as metric labels.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// GetAnalyticsQueryHandler computes analytics views from the order and review
// history, read through an optional cache keyed by the normalized query.
type GetAnalyticsQueryHandler struct {
	orders    ports.OrderRepository
	reviews   ports.ReviewRepository
	cache     ports.AnalyticsCache
	ttl       time.Duration
	analytics services.Analytics
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewGetAnalyticsQueryHandler wires the handler. cache and m may be nil; a
// non-positive ttl means DefaultAnalyticsTTL.
func NewGetAnalyticsQueryHandler(
	orders ports.OrderRepository,
	reviews ports.ReviewRepository,
	cache ports.AnalyticsCache,
	ttl time.Duration,
	m *metrics.Metrics,
	log *zap.Logger,
) GetAnalyticsQueryHandler {
	if ttl <= 0 {
		ttl = DefaultAnalyticsTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return GetAnalyticsQueryHandler{
		orders:    orders,
		reviews:   reviews,
		cache:     cache,
		ttl:       ttl,
		analytics: services.NewAnalytics(),
		metrics:   m,
		log:       log,
	}
}

func (h GetAnalyticsQueryHandler) Handle(ctx context.Context, query GetAnalyticsQuery) (GetAnalyticsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetAnalyticsQueryResponse{}, err
	}

	if !query.Cacheable() {
		return h.compute(ctx, query)
	}

	key := query.CacheKey()
	if resp, ok := h.cached(ctx, key); ok {
		return resp, nil
	}

	resp, err := h.compute(ctx, query)
	if err != nil {
		return GetAnalyticsQueryResponse{}, err
	}

	h.store(ctx, key, resp)
	return resp, nil
}

func (h GetAnalyticsQueryHandler) compute(ctx context.Context, query GetAnalyticsQuery) (GetAnalyticsQueryResponse, error) {
	resp := GetAnalyticsQueryResponse{View: query.View()}
	p := query.Period()

	if query.View() == ViewRating {
		providerID := query.ProviderID()
		reviews, err := h.reviews.List(ctx, ports.ReviewFilter{
			CreatedFrom: p.From,
			CreatedTo:   p.To,
			ProviderID:  &providerID,
		})
		if err != nil {
			return GetAnalyticsQueryResponse{}, err
		}
		facts := make([]services.ReviewFact, 0, len(reviews))
		for _, r := range reviews {
			facts = append(facts, services.ReviewFactOf(r))
		}
		summary := h.analytics.ProviderRating(facts, providerID)
		resp.Rating = &summary
		return resp, nil
	}

	orders, err := h.orders.List(ctx, ports.OrderFilter{CreatedFrom: p.From, CreatedTo: p.To})
	if err != nil {
		return GetAnalyticsQueryResponse{}, err
	}
	facts := make([]services.OrderFact, 0, len(orders))
	for _, o := range orders {
		facts = append(facts, services.OrderFactOf(o))
	}

	switch query.View() {
	case ViewRevenue:
		resp.Revenue = h.analytics.RevenueByPeriod(facts, p)
	case ViewTop:
		resp.Top, err = h.analytics.TopN(facts, query.Dimension(), query.Metric(), query.Limit(), p)
	case ViewRating:
	}
	return resp, err
}

func (h GetAnalyticsQueryHandler) cached(ctx context.Context, key string) (GetAnalyticsQueryResponse, bool) {
	if h.cache == nil {
		return GetAnalyticsQueryResponse{}, false
	}

	raw, err := h.cache.Get(ctx, key)
	switch {
	case errors.Is(err, ports.ErrCacheMiss):
		h.metrics.CacheLookup(CacheMiss)
		return GetAnalyticsQueryResponse{}, false
	case err != nil:
		h.metrics.CacheLookup(CacheError)
		h.log.Warn("analytics cache read failed", zap.String("key", key), zap.Error(err))
		return GetAnalyticsQueryResponse{}, false
	}

	var resp GetAnalyticsQueryResponse
	if err = json.Unmarshal(raw, &resp); err != nil {
		h.metrics.CacheLookup(CacheError)
		h.log.Warn("analytics cache entry unreadable", zap.String("key", key), zap.Error(err))
		return GetAnalyticsQueryResponse{}, false
	}
	h.metrics.CacheLookup(CacheHit)
	return resp, true
}

func (h GetAnalyticsQueryHandler) store(ctx context.Context, key string, resp GetAnalyticsQueryResponse) {
	if h.cache == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err = h.cache.Set(ctx, key, raw, h.ttl); err != nil {
		h.log.Warn("analytics cache write failed", zap.String("key", key), zap.Error(err))
	}
}
