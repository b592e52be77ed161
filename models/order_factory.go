package models

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date layout used for the service date
const DateLayout = "2006-01-02"

// IDGenerator produces order numbers
type IDGenerator interface {
	NewOrderNumber(now time.Time) string
}

// LinkBuilder derives the signature link of an order from its number
type LinkBuilder interface {
	Build(orderNumber string) string
}

// RandomIDGenerator generates YYYYMMDD-NNNN numbers with a random 4-digit suffix
type RandomIDGenerator struct{}

// NewOrderNumber returns a number for an order created at now
func (RandomIDGenerator) NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("%s-%04d", now.Format("20060102"), rand.IntN(10000))
}

// SignatureLinkBuilder builds <BaseURL>/<Path>?order=<orderNumber>
type SignatureLinkBuilder struct {
	BaseURL string
	Path    string
}

// DefaultSignaturePath is the signature entry page the generated links point at
const DefaultSignaturePath = "signature.html"

// Build returns the link for orderNumber
func (b SignatureLinkBuilder) Build(orderNumber string) string {
	path := strings.TrimPrefix(b.Path, "/")
	if path == "" {
		path = DefaultSignaturePath
	}
	base := strings.TrimRight(b.BaseURL, "/")
	return fmt.Sprintf("%s/%s?%s", base, path, url.Values{"order": {orderNumber}}.Encode())
}

// ParseOrderNumber extracts the order query parameter from a generated link
func ParseOrderNumber(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("failed to parse link: %w", err)
	}
	number := u.Query().Get("order")
	if number == "" {
		return "", fmt.Errorf("link has no order parameter: %s", link)
	}
	return number, nil
}

// OrderFactory constructs orders, filling self-generated fields from its
// strategies. A zero-value factory is usable: missing strategies fall back to
// RandomIDGenerator, a relative SignatureLinkBuilder and time.Now.
type OrderFactory struct {
	IDs   IDGenerator
	Links LinkBuilder
	Now   func() time.Time
}

func (f *OrderFactory) now() time.Time {
	now := time.Now
	if f != nil && f.Now != nil {
		now = f.Now
	}
	// millisecond precision keeps timestamps stable across a JSON round-trip
	return now().UTC().Truncate(time.Millisecond)
}

func (f *OrderFactory) ids() IDGenerator {
	if f == nil || f.IDs == nil {
		return RandomIDGenerator{}
	}
	return f.IDs
}

func (f *OrderFactory) links() LinkBuilder {
	if f == nil || f.Links == nil {
		return SignatureLinkBuilder{}
	}
	return f.Links
}

// Today returns the service date for now
func (f *OrderFactory) Today() string {
	return f.now().Format(DateLayout)
}

// Timestamp returns the factory clock reading
func (f *OrderFactory) Timestamp() time.Time {
	return f.now()
}

// NewOrderNumber generates a fresh order number
func (f *OrderFactory) NewOrderNumber() string {
	return f.ids().NewOrderNumber(f.now())
}

// Link derives the signature link for orderNumber
func (f *OrderFactory) Link(orderNumber string) string {
	return f.links().Build(orderNumber)
}

// New builds a pending order from input. It never fails: number, date, link
// and createdAt are generated when absent.
func (f *OrderFactory) New(input OrderInput) *Order {
	now := f.now()

	order := &Order{
		OrderNumber: input.OrderNumber,
		Date:        input.Date,
		Site:        input.Site,
		Building:    input.Building,
		Floor:       input.Floor,
		Unit:        input.Unit,
		Reason:      input.Reason,
		Staff:       input.Staff,
		Amount:      input.Amount,
		Photos:      append([]Photo(nil), input.Photos...),
		Status:      StatusPending,
		CreatedAt:   now,
	}
	if order.Photos == nil {
		order.Photos = []Photo{}
	}
	if order.OrderNumber == "" {
		order.OrderNumber = f.ids().NewOrderNumber(now)
	}
	if order.Date == "" {
		order.Date = now.Format(DateLayout)
	}
	order.Link = f.Link(order.OrderNumber)
	return order
}

// Duplicate copies the work content of src into a new pending order with a
// fresh number, today's date, a fresh createdAt and a freshly derived link
func (f *OrderFactory) Duplicate(src *Order) *Order {
	return f.New(OrderInput{
		Site:     src.Site,
		Building: src.Building,
		Floor:    src.Floor,
		Unit:     src.Unit,
		Reason:   src.Reason,
		Staff:    src.Staff,
		Amount:   src.Amount,
		Photos:   src.Photos,
	})
}
