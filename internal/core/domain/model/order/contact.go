package order

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"fulfillment/internal/pkg/errs"
)

var phonePattern = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// Contact is the snapshot of the client's notification channels taken when
// the order is placed.
type Contact struct {
	email         string
	phone         string
	whatsappOptIn bool
}

// NewContact validates an email address (required) and an optional E.164 phone.
func NewContact(email, phone string, whatsappOptIn bool) (Contact, error) {
	email = strings.TrimSpace(email)
	phone = strings.ReplaceAll(strings.TrimSpace(phone), " ", "")

	if email == "" {
		return Contact{}, errs.NewValueIsRequiredError("contact email")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return Contact{}, errs.NewValueIsInvalidErrorWithCause("contact email", fmt.Errorf("%q is not an address", email))
	}
	if phone != "" && !phonePattern.MatchString(phone) {
		return Contact{}, errs.NewValueIsInvalidErrorWithCause("contact phone", fmt.Errorf("%q is not in E.164 form", phone))
	}

	return Contact{email: email, phone: phone, whatsappOptIn: whatsappOptIn}, nil
}

func (c Contact) Email() string       { return c.email }
func (c Contact) Phone() string       { return c.phone }
func (c Contact) WhatsAppOptIn() bool { return c.whatsappOptIn }

// WantsWhatsApp reports whether the client opted in and left a phone number.
func (c Contact) WantsWhatsApp() bool {
	return c.whatsappOptIn && c.phone != ""
}
