package order

import (
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
)

// Actor is the role on whose behalf a transition is requested.
type Actor int

const (
	ActorUnknown Actor = iota
	// ActorMatchingEngine is the system itself, assigning pending orders.
	ActorMatchingEngine
	// ActorProvider drives production: in_production, shipped, delivered.
	ActorProvider
	// ActorClient may cancel before production starts.
	ActorClient
	// ActorAdmin performs compensating refunds.
	ActorAdmin
)

var actorNames = map[Actor]string{
	ActorMatchingEngine: "matching_engine",
	ActorProvider:       "provider",
	ActorClient:         "client",
	ActorAdmin:          "admin",
}

// ParseActor parses a role name such as "provider".
func ParseActor(s string) (Actor, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for a, name := range actorNames {
		if name == needle {
			return a, nil
		}
	}
	return ActorUnknown, errs.NewValueIsInvalidErrorWithCause("actor role", fmt.Errorf("%q is not a known role", s))
}

func (a Actor) Validate() error {
	if _, ok := actorNames[a]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("actor role", fmt.Errorf("%d is not a known role", a))
	}
	return nil
}

func (a Actor) String() string {
	if name, ok := actorNames[a]; ok {
		return name
	}
	return "unknown"
}

func (a Actor) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
