// Package review holds the client's post-delivery rating of an order.
package review

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

const (
	MinRating = 1
	MaxRating = 5
	// MaxComment is the longest accepted comment, in runes.
	MaxComment = 2000
)

var (
	ErrReviewIsNotConstructed = errors.New("Review must be created via NewReview constructor")
	// ErrOrderNotDelivered is returned when a review targets an order that has
	// not reached delivered.
	ErrOrderNotDelivered = errors.New("only delivered orders can be reviewed")
	// ErrReviewExists is returned when the order already carries a review.
	ErrReviewExists = errors.New("order already reviewed")
)

// Review is immutable once created. At most one exists per order.
type Review struct {
	id         kernel.UUID
	orderID    kernel.UUID
	designID   kernel.UUID
	providerID *kernel.UUID
	rating     int
	comment    string
	createdAt  time.Time
	guard      guard.ConstructorGuard
}

// NewReview rates a delivered order. The design and provider references are
// taken from the order itself.
func NewReview(id kernel.UUID, o *order.Order, rating int, comment string, now time.Time) (*Review, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if o.Status() != order.Delivered {
		return nil, fmt.Errorf("%w: order %s is %s", ErrOrderNotDelivered, o.ID(), o.Status())
	}
	return RestoreReview(id, o.ID(), o.DesignID(), o.Provider(), rating, comment, now)
}

// RestoreReview rebuilds a review from persistence.
func RestoreReview(
	id kernel.UUID,
	orderID kernel.UUID,
	designID kernel.UUID,
	providerID *kernel.UUID,
	rating int,
	comment string,
	createdAt time.Time,
) (*Review, error) {
	r := &Review{
		comment:   strings.TrimSpace(comment),
		createdAt: createdAt.UTC(),
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		id.Validate(),
		orderID.Validate(),
		designID.Validate(),
		validateRating(rating),
		validateComment(r.comment),
	); err != nil {
		return nil, err
	}

	r.id, r.orderID, r.designID, r.rating = id, orderID, designID, rating
	if providerID != nil {
		if err := providerID.Validate(); err != nil {
			return nil, err
		}
		p := *providerID
		r.providerID = &p
	}
	return r, nil
}

func (r *Review) Validate() error {
	if r == nil {
		return ErrReviewIsNotConstructed
	}
	return r.guard.Validate(ErrReviewIsNotConstructed)
}

func (r *Review) ID() kernel.UUID       { return r.id }
func (r *Review) OrderID() kernel.UUID  { return r.orderID }
func (r *Review) DesignID() kernel.UUID { return r.designID }
func (r *Review) Rating() int           { return r.rating }
func (r *Review) Comment() string       { return r.comment }
func (r *Review) CreatedAt() time.Time  { return r.createdAt }

// ProviderID is nil when the reviewed order carries no provider.
func (r *Review) ProviderID() *kernel.UUID {
	if r.providerID == nil {
		return nil
	}
	p := *r.providerID
	return &p
}

func validateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return errs.NewValueIsOutOfRangeError("rating", rating, MinRating, MaxRating)
	}
	return nil
}

func validateComment(comment string) error {
	if n := utf8.RuneCountInString(comment); n > MaxComment {
		return errs.NewValueIsOutOfRangeError("comment length", n, 0, MaxComment)
	}
	return nil
}
