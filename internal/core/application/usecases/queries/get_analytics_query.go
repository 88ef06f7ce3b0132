package queries

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// MaxTopN caps leaderboard length.
const MaxTopN = 100

var ErrGetAnalyticsQueryIsNotConstructed = errors.New(
	"GetAnalyticsQuery must be created via one of the NewGetAnalyticsQuery constructors",
)

// View selects which analytics view a query computes.
type View string

const (
	ViewRevenue View = "revenue"
	ViewTop     View = "top"
	ViewRating  View = "rating"
)

// GetAnalyticsQuery describes one analytics view over a creation-time window.
type GetAnalyticsQuery struct {
	view       View
	period     services.Period
	metric     services.Metric
	dimension  services.Dimension
	limit      int
	providerID kernel.UUID

	guard guard.ConstructorGuard
}

// NewRevenueAnalyticsQuery buckets revenue by UTC month.
func NewRevenueAnalyticsQuery(period services.Period) (GetAnalyticsQuery, error) {
	if err := period.Validate(); err != nil {
		return GetAnalyticsQuery{}, err
	}
	return GetAnalyticsQuery{view: ViewRevenue, period: period, guard: guard.NewConstructorGuard()}, nil
}

// NewTopAnalyticsQuery ranks a dimension by metric. A limit of 0 means MaxTopN.
func NewTopAnalyticsQuery(
	period services.Period,
	dimension services.Dimension,
	metric services.Metric,
	limit int,
) (GetAnalyticsQuery, error) {
	_, dimErr := services.ParseDimension(string(dimension))
	_, metricErr := services.ParseMetric(string(metric))

	var limitErr error
	if limit < 0 || limit > MaxTopN {
		limitErr = errs.NewValueIsOutOfRangeError("limit", limit, 0, MaxTopN)
	}
	if limit == 0 {
		limit = MaxTopN
	}

	if err := errors.Join(period.Validate(), dimErr, metricErr, limitErr); err != nil {
		return GetAnalyticsQuery{}, err
	}
	return GetAnalyticsQuery{
		view:      ViewTop,
		period:    period,
		metric:    metric,
		dimension: dimension,
		limit:     limit,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// NewRatingAnalyticsQuery averages the provider's reviews created inside period.
func NewRatingAnalyticsQuery(period services.Period, providerID kernel.UUID) (GetAnalyticsQuery, error) {
	if err := errors.Join(period.Validate(), providerID.Validate()); err != nil {
		return GetAnalyticsQuery{}, err
	}
	return GetAnalyticsQuery{
		view:       ViewRating,
		period:     period,
		providerID: providerID,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (q GetAnalyticsQuery) Validate() error {
	return q.guard.Validate(ErrGetAnalyticsQueryIsNotConstructed)
}

func (q GetAnalyticsQuery) View() View                    { return q.view }
func (q GetAnalyticsQuery) Period() services.Period       { return q.period }
func (q GetAnalyticsQuery) Metric() services.Metric       { return q.metric }
func (q GetAnalyticsQuery) Dimension() services.Dimension { return q.dimension }
func (q GetAnalyticsQuery) Limit() int                    { return q.limit }
func (q GetAnalyticsQuery) ProviderID() kernel.UUID       { return q.providerID }

// Cacheable reports whether the view may be served from cache. Ratings are
// always read live so a new review shows up at once.
func (q GetAnalyticsQuery) Cacheable() bool { return q.view != ViewRating }

// CacheKey is the normalized form of the query. Equal queries share a key.
func (q GetAnalyticsQuery) CacheKey() string {
	parts := []string{"analytics", string(q.view), bound(q.period.From), bound(q.period.To)}
	switch q.view {
	case ViewTop:
		parts = append(parts, string(q.dimension), string(q.metric), strconv.Itoa(q.limit))
	case ViewRating:
		parts = append(parts, q.providerID.String())
	case ViewRevenue:
	}
	return strings.Join(parts, ":")
}

func bound(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return fmt.Sprint(t.UTC().Unix())
}

// GetAnalyticsQueryResponse carries exactly one populated view.
type GetAnalyticsQueryResponse struct {
	View    View                     `json:"view"`
	Revenue []services.RevenueBucket `json:"revenue,omitempty"`
	Top     []services.Ranked        `json:"top,omitempty"`
	Rating  *services.RatingSummary  `json:"rating,omitempty"`
}
