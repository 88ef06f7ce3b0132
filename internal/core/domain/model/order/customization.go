package order

import (
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"strings"
	"unicode/utf8"

	"fulfillment/internal/pkg/errs"
)

const (
	// MaxCustomText is the longest printable text accepted, in runes.
	MaxCustomText = 280
	// MaxExtraFields caps the escape-hatch map.
	MaxExtraFields = 32
	// MaxExtraValue is the longest accepted extra value, in runes.
	MaxExtraValue = 512
)

var reservedCustomizationKeys = map[string]struct{}{
	"size":      {},
	"color":     {},
	"text":      {},
	"font":      {},
	"placement": {},
}

// Customization is the personalization applied to a design × support bundle.
// The known fields are typed; anything else goes into Extra.
type Customization struct {
	size      string
	color     string
	text      string
	font      string
	placement string
	extra     map[string]string
}

// CustomizationFields is the unvalidated input shape, also used for JSON.
type CustomizationFields struct {
	Size      string            `json:"size,omitempty"`
	Color     string            `json:"color,omitempty"`
	Text      string            `json:"text,omitempty"`
	Font      string            `json:"font,omitempty"`
	Placement string            `json:"placement,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// NewCustomization validates raw fields. All fields are optional.
//
//	c, err := order.NewCustomization(order.CustomizationFields{Size: "L", Text: "Hello"})
func NewCustomization(f CustomizationFields) (Customization, error) {
	c := Customization{
		size:      strings.TrimSpace(f.Size),
		color:     strings.TrimSpace(f.Color),
		text:      f.Text,
		font:      strings.TrimSpace(f.Font),
		placement: strings.TrimSpace(f.Placement),
	}

	if n := utf8.RuneCountInString(c.text); n > MaxCustomText {
		return Customization{}, errs.NewValueIsOutOfRangeError("customization text length", n, 0, MaxCustomText)
	}

	if len(f.Extra) > MaxExtraFields {
		return Customization{}, errs.NewValueIsOutOfRangeError("customization extra fields", len(f.Extra), 0, MaxExtraFields)
	}

	if len(f.Extra) > 0 {
		c.extra = make(map[string]string, len(f.Extra))
	}
	for k, v := range f.Extra {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			return Customization{}, errs.NewValueIsRequiredError("customization extra key")
		}
		if _, taken := reservedCustomizationKeys[key]; taken {
			return Customization{}, errs.NewValueIsInvalidErrorWithCause(
				"customization extra key",
				fmt.Errorf("%q shadows a typed field", k),
			)
		}
		if _, dup := c.extra[key]; dup {
			return Customization{}, errs.NewValueIsInvalidErrorWithCause(
				"customization extra key",
				fmt.Errorf("%q is duplicated", k),
			)
		}
		if utf8.RuneCountInString(v) > MaxExtraValue {
			return Customization{}, errs.NewValueIsOutOfRangeError("customization extra value length", utf8.RuneCountInString(v), 0, MaxExtraValue)
		}
		c.extra[key] = v
	}

	return c, nil
}

func (c Customization) Size() string      { return c.size }
func (c Customization) Color() string     { return c.color }
func (c Customization) Text() string      { return c.text }
func (c Customization) Font() string      { return c.font }
func (c Customization) Placement() string { return c.placement }

// Extra returns a copy of the escape-hatch map.
func (c Customization) Extra() map[string]string {
	return maps.Clone(c.extra)
}

// ExtraKeys returns the extra keys in sorted order.
func (c Customization) ExtraKeys() []string {
	keys := make([]string, 0, len(c.extra))
	for k := range c.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty reports whether nothing was personalized.
func (c Customization) IsEmpty() bool {
	return c.size == "" && c.color == "" && c.text == "" && c.font == "" && c.placement == "" && len(c.extra) == 0
}

// Fields returns the value in its transport shape.
func (c Customization) Fields() CustomizationFields {
	return CustomizationFields{
		Size:      c.size,
		Color:     c.color,
		Text:      c.text,
		Font:      c.font,
		Placement: c.placement,
		Extra:     c.Extra(),
	}
}

func (c Customization) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Fields())
}

// CustomizationFromJSON decodes and re-validates a stored payload.
func CustomizationFromJSON(data []byte) (Customization, error) {
	if len(data) == 0 || string(data) == "null" {
		return Customization{}, nil
	}
	var f CustomizationFields
	if err := json.Unmarshal(data, &f); err != nil {
		return Customization{}, errs.NewValueIsInvalidErrorWithCause("customization", err)
	}
	return NewCustomization(f)
}
