package notifications

import (
	"bytes"
	"fmt"
	"maps"
	"text/template"

	"fulfillment/internal/core/domain/model/notification"
)

// TemplateSource is the raw text of one message template.
type TemplateSource struct {
	Subject string
	Body    string
}

// DefaultTemplates covers every status an order can enter.
var DefaultTemplates = map[notification.TemplateKey]TemplateSource{
	"order.pending": {
		Subject: "We received your order",
		Body:    "Your order {{.OrderID}} for {{title .DesignTitle}} is placed and awaiting a maker.",
	},
	"order.assigned": {
		Subject: "A maker picked up your order",
		Body:    "Good news: order {{.OrderID}} for {{title .DesignTitle}} has been assigned to a local maker.",
	},
	"order.in_production": {
		Subject: "Your order is in production",
		Body:    "Order {{.OrderID}} for {{title .DesignTitle}} is being made.",
	},
	"order.shipped": {
		Subject: "Your order is on its way",
		Body:    "Order {{.OrderID}} for {{title .DesignTitle}} has shipped.",
	},
	"order.delivered": {
		Subject: "Your order was delivered",
		Body:    "Order {{.OrderID}} for {{title .DesignTitle}} was delivered. Tell us how it went!",
	},
	"order.cancelled": {
		Subject: "Your order was cancelled",
		Body:    "Order {{.OrderID}} for {{title .DesignTitle}} was cancelled.",
	},
	"order.refunded": {
		Subject: "Your order was refunded",
		Body:    "Order {{.OrderID}} for {{title .DesignTitle}} was refunded.",
	},
}

var funcs = template.FuncMap{
	"title": func(s string) string {
		if s == "" {
			return "your design"
		}
		return fmt.Sprintf("%q", s)
	},
}

type compiled struct {
	subject *template.Template
	body    *template.Template
}

// Templates renders messages by template key.
type Templates struct {
	byKey map[notification.TemplateKey]compiled
}

// ParseTemplates compiles sources, failing on the first malformed template.
func ParseTemplates(sources map[notification.TemplateKey]TemplateSource) (*Templates, error) {
	t := &Templates{byKey: make(map[notification.TemplateKey]compiled, len(sources))}
	for key, src := range sources {
		subject, err := template.New(string(key) + ".subject").Funcs(funcs).Option("missingkey=error").Parse(src.Subject)
		if err != nil {
			return nil, fmt.Errorf("parse subject of %s: %w", key, err)
		}
		body, err := template.New(string(key) + ".body").Funcs(funcs).Option("missingkey=error").Parse(src.Body)
		if err != nil {
			return nil, fmt.Errorf("parse body of %s: %w", key, err)
		}
		t.byKey[key] = compiled{subject: subject, body: body}
	}
	return t, nil
}

// MustDefaultTemplates compiles DefaultTemplates.
func MustDefaultTemplates() *Templates {
	t, err := ParseTemplates(maps.Clone(DefaultTemplates))
	if err != nil {
		panic(err)
	}
	return t
}

// Render produces the subject and body for key.
func (t *Templates) Render(key notification.TemplateKey, payload notification.Payload) (string, string, error) {
	c, ok := t.byKey[key]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownTemplate, key)
	}

	var subject, body bytes.Buffer
	if err := c.subject.Execute(&subject, payload); err != nil {
		return "", "", err
	}
	if err := c.body.Execute(&body, payload); err != nil {
		return "", "", err
	}
	return subject.String(), body.String(), nil
}
