package services

import (
	"errors"
	"fmt"
	"sort"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/provider"
	"fulfillment/internal/pkg/errs"
)

// ErrNoEligibleProvider is returned when no active, capable provider with
// headroom remains. It is a business outcome: the order stays pending and can
// be matched again later.
var ErrNoEligibleProvider = errors.New("no eligible provider")

// Weights are the coefficients of the matching score
//
//	score = Location·affinity + Headroom·headroomRatio + Rating·normalizedRating
type Weights struct {
	Location float64
	Headroom float64
	Rating   float64
}

// DefaultWeights favors proximity, then load spreading, then reputation.
func DefaultWeights() Weights {
	return Weights{Location: 0.5, Headroom: 0.3, Rating: 0.2}
}

// Validate rejects negative weights and an all-zero set.
func (w Weights) Validate() error {
	if w.Location < 0 || w.Headroom < 0 || w.Rating < 0 {
		return errs.NewValueIsInvalidErrorWithCause("match weights", fmt.Errorf("%+v has a negative weight", w))
	}
	if w.Location+w.Headroom+w.Rating == 0 {
		return errs.NewValueIsInvalidErrorWithCause("match weights", errors.New("all weights are zero"))
	}
	return nil
}

// Candidate is a provider together with its current ledger load.
type Candidate struct {
	Provider *provider.Provider
	Load     provider.Load
}

// Scored is a ranked candidate with the components of its score.
type Scored struct {
	Candidate
	Affinity      float64
	HeadroomRatio float64
	Rating        float64
	Score         float64
}

// ProviderID is a shorthand for the scored provider's id.
func (s Scored) ProviderID() kernel.UUID {
	return s.Provider.ID()
}

// Matcher ranks providers for an order. It never reserves capacity itself;
// the caller reserves the winner through the capacity ledger.
type Matcher struct {
	weights Weights
}

// NewMatcher returns a matcher using w.
func NewMatcher(w Weights) (Matcher, error) {
	if err := w.Validate(); err != nil {
		return Matcher{}, err
	}
	return Matcher{weights: w}, nil
}

// Weights returns the configured coefficients.
func (m Matcher) Weights() Weights {
	return m.weights
}

// Rank filters candidates down to the eligible ones and sorts them best first.
// Eligible means active, carrying the order's capability and having headroom.
// Ties are broken by provider id, ascending, so the ranking is reproducible.
func (m Matcher) Rank(o *order.Order, candidates []Candidate) ([]Scored, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := o.ValidateAssign(); err != nil {
		return nil, err
	}

	ranked := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		if err := c.Provider.Validate(); err != nil {
			return nil, err
		}
		if !c.Provider.IsEligibleFor(o.RequiredCapability()) || !c.Load.CanReserve() {
			continue
		}
		ranked = append(ranked, m.score(o, c))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ProviderID().Less(ranked[j].ProviderID())
	})

	return ranked, nil
}

// Best returns the top-ranked candidate, skipping the excluded providers.
func (m Matcher) Best(o *order.Order, candidates []Candidate, exclude ...kernel.UUID) (Scored, error) {
	ranked, err := m.Rank(o, candidates)
	if err != nil {
		return Scored{}, err
	}

next:
	for _, s := range ranked {
		for _, ex := range exclude {
			if s.ProviderID().IsEqual(ex) {
				continue next
			}
		}
		return s, nil
	}

	return Scored{}, ErrNoEligibleProvider
}

func (m Matcher) score(o *order.Order, c Candidate) Scored {
	s := Scored{
		Candidate:     c,
		Affinity:      o.ShipTo().Affinity(c.Provider.Location()),
		HeadroomRatio: c.Load.HeadroomRatio(),
		Rating:        c.Provider.NormalizedRating(),
	}
	s.Score = m.weights.Location*s.Affinity + m.weights.Headroom*s.HeadroomRatio + m.weights.Rating*s.Rating
	return s
}
