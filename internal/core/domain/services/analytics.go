package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/review"
	"fulfillment/internal/pkg/errs"
)

// PeriodLayout is the bucket key format of revenue-by-period: UTC months.
const PeriodLayout = "2006-01"

// Metric is what a leaderboard ranks by.
type Metric string

const (
	// MetricSales sums ordered quantities.
	MetricSales Metric = "sales"
	// MetricRevenue sums total prices in minor units.
	MetricRevenue Metric = "revenue"
	// MetricOrders counts orders.
	MetricOrders Metric = "orders"
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MetricSales, MetricRevenue, MetricOrders:
		return m, nil
	}
	return "", errs.NewValueIsInvalidErrorWithCause("metric", fmt.Errorf("%q is not one of sales, revenue, orders", s))
}

// Dimension is what a leaderboard groups by.
type Dimension string

const (
	DimensionDesigns   Dimension = "designs"
	DimensionClients   Dimension = "clients"
	DimensionProviders Dimension = "providers"
)

// ParseDimension validates a dimension name.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DimensionDesigns, DimensionClients, DimensionProviders:
		return d, nil
	}
	return "", errs.NewValueIsInvalidErrorWithCause("dimension", fmt.Errorf("%q is not one of designs, clients, providers", s))
}

// Period is a half-open [From, To) creation-time window. A zero bound is open.
type Period struct {
	From time.Time
	To   time.Time
}

// Validate rejects inverted windows.
func (p Period) Validate() error {
	if !p.From.IsZero() && !p.To.IsZero() && !p.From.Before(p.To) {
		return errs.NewValueIsInvalidErrorWithCause("period", fmt.Errorf("from %s is not before to %s", p.From, p.To))
	}
	return nil
}

// Contains reports whether t falls inside the window.
func (p Period) Contains(t time.Time) bool {
	if !p.From.IsZero() && t.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && !t.Before(p.To) {
		return false
	}
	return true
}

// OrderFact is the slice of an order analytics needs.
type OrderFact struct {
	OrderID    kernel.UUID
	ClientID   kernel.UUID
	DesignID   kernel.UUID
	ProviderID *kernel.UUID
	Status     order.Status
	Quantity   int
	TotalPrice kernel.Money
	CreatedAt  time.Time
}

// OrderFactOf extracts the analytics view of an order.
func OrderFactOf(o *order.Order) OrderFact {
	return OrderFact{
		OrderID:    o.ID(),
		ClientID:   o.ClientID(),
		DesignID:   o.DesignID(),
		ProviderID: o.Provider(),
		Status:     o.Status(),
		Quantity:   o.Quantity(),
		TotalPrice: o.TotalPrice(),
		CreatedAt:  o.CreatedAt(),
	}
}

// Counts reports whether the order contributes to revenue and leaderboards.
// Cancelled and refunded orders never do.
func (f OrderFact) Counts() bool {
	return f.Status != order.Cancelled && f.Status != order.Refunded
}

// ReviewFact is the slice of a review analytics needs.
type ReviewFact struct {
	OrderID    kernel.UUID
	DesignID   kernel.UUID
	ProviderID *kernel.UUID
	Rating     int
	CreatedAt  time.Time
}

// ReviewFactOf extracts the analytics view of a review.
func ReviewFactOf(r *review.Review) ReviewFact {
	return ReviewFact{
		OrderID:    r.OrderID(),
		DesignID:   r.DesignID(),
		ProviderID: r.ProviderID(),
		Rating:     r.Rating(),
		CreatedAt:  r.CreatedAt(),
	}
}

// RevenueBucket is one month of revenue.
type RevenueBucket struct {
	Period  string       `json:"period"`
	Revenue kernel.Money `json:"revenue"`
	Orders  int          `json:"orders"`
	Units   int          `json:"units"`
}

// Ranked is one leaderboard row.
type Ranked struct {
	Key   string `json:"key"`
	Value int64  `json:"value"`
}

// RatingSummary is a provider's mean review score.
type RatingSummary struct {
	ProviderID string  `json:"provider_id"`
	Mean       float64 `json:"mean"`
	Count      int     `json:"count"`
}

// Analytics computes read-only views over order and review history.
type Analytics struct{}

func NewAnalytics() Analytics {
	return Analytics{}
}

// RevenueByPeriod buckets counted orders created inside p by UTC month and
// returns the buckets in chronological order.
func (Analytics) RevenueByPeriod(orders []OrderFact, p Period) []RevenueBucket {
	buckets := make(map[string]*RevenueBucket)
	for _, f := range orders {
		if !f.Counts() || !p.Contains(f.CreatedAt) {
			continue
		}
		key := f.CreatedAt.UTC().Format(PeriodLayout)
		b, ok := buckets[key]
		if !ok {
			b = &RevenueBucket{Period: key}
			buckets[key] = b
		}
		b.Revenue += f.TotalPrice
		b.Orders++
		b.Units += f.Quantity
	}

	out := make([]RevenueBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// TopN ranks the dimension's keys by metric over counted orders created inside
// p. Rows are ordered by value descending, then key ascending. n <= 0 returns
// every row. Orders without a provider are ignored for DimensionProviders.
func (Analytics) TopN(orders []OrderFact, dim Dimension, metric Metric, n int, p Period) ([]Ranked, error) {
	if _, err := ParseDimension(string(dim)); err != nil {
		return nil, err
	}
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}

	totals := make(map[string]int64)
	for _, f := range orders {
		if !f.Counts() || !p.Contains(f.CreatedAt) {
			continue
		}
		key, ok := dimensionKey(f, dim)
		if !ok {
			continue
		}
		switch metric {
		case MetricSales:
			totals[key] += int64(f.Quantity)
		case MetricRevenue:
			totals[key] += f.TotalPrice.Minor()
		case MetricOrders:
			totals[key]++
		}
	}

	out := make([]Ranked, 0, len(totals))
	for k, v := range totals {
		out = append(out, Ranked{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Key < out[j].Key
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// ProviderRating is the mean rating of the provider's reviews; 0 with no reviews.
func (Analytics) ProviderRating(reviews []ReviewFact, providerID kernel.UUID) RatingSummary {
	summary := RatingSummary{ProviderID: providerID.String()}
	sum := 0
	for _, r := range reviews {
		if r.ProviderID == nil || !r.ProviderID.IsEqual(providerID) {
			continue
		}
		sum += r.Rating
		summary.Count++
	}
	if summary.Count > 0 {
		summary.Mean = float64(sum) / float64(summary.Count)
	}
	return summary
}

func dimensionKey(f OrderFact, dim Dimension) (string, bool) {
	switch dim {
	case DimensionDesigns:
		return f.DesignID.String(), true
	case DimensionClients:
		return f.ClientID.String(), true
	case DimensionProviders:
		if f.ProviderID == nil {
			return "", false
		}
		return f.ProviderID.String(), true
	}
	return "", false
}
