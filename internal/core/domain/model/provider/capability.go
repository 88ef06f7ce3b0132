package provider

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"fulfillment/internal/pkg/errs"
)

var capabilityPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Capability is a product-type tag such as "t-shirt" or "mug". Tags are
// lower-cased and trimmed so that "T-Shirt " and "t-shirt" match.
type Capability string

// NewCapability normalizes and validates a tag.
func NewCapability(raw string) (Capability, error) {
	c := Capability(strings.ToLower(strings.TrimSpace(raw)))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

// Validate checks the tag format.
func (c Capability) Validate() error {
	if c == "" {
		return errs.NewValueIsRequiredError("capability")
	}
	if !capabilityPattern.MatchString(string(c)) {
		return errs.NewValueIsInvalidErrorWithCause("capability", fmt.Errorf("%q is not a valid tag", string(c)))
	}
	return nil
}

func (c Capability) String() string {
	return string(c)
}

// CapabilitySet is an immutable, de-duplicated set of tags.
type CapabilitySet struct {
	tags map[Capability]struct{}
}

// NewCapabilitySet builds a set from raw tags. Duplicates collapse; an empty
// result is rejected.
func NewCapabilitySet(raw ...string) (CapabilitySet, error) {
	set := CapabilitySet{tags: make(map[Capability]struct{}, len(raw))}
	for _, r := range raw {
		c, err := NewCapability(r)
		if err != nil {
			return CapabilitySet{}, err
		}
		set.tags[c] = struct{}{}
	}
	if len(set.tags) == 0 {
		return CapabilitySet{}, errs.NewValueIsRequiredError("capabilities")
	}
	return set, nil
}

// Contains reports whether the set holds c.
func (s CapabilitySet) Contains(c Capability) bool {
	_, ok := s.tags[c]
	return ok
}

// Len returns the number of tags.
func (s CapabilitySet) Len() int {
	return len(s.tags)
}

// Strings returns the tags sorted alphabetically.
func (s CapabilitySet) Strings() []string {
	out := make([]string, 0, len(s.tags))
	for c := range s.tags {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}
