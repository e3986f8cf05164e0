package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Well-known order statuses. Status is a free string; these are the values
// the ETL generates and the analytics layer recognises.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// OrderStatuses lists the well-known order statuses.
var OrderStatuses = []string{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

// TimeLayout is the layout of stored timestamps. It is fixed width and
// always UTC, so string order equals time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Meta holds the fields every document carries regardless of kind.
type Meta struct {
	// ID is the document identifier ("_id"), prefixed with the kind.
	ID string `json:"_id,omitempty"`

	// Rev is the store's revision token. Opaque to this layer.
	Rev string `json:"_rev,omitempty"`

	// Type is the kind discriminator.
	Type Kind `json:"type"`

	// CreatedAt is set once when the document is first written.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is refreshed on every mutation.
	UpdatedAt time.Time `json:"updated_at"`

	// Version is the schema version, not the revision.
	Version int `json:"version"`
}

// Base gives access to the shared fields of any document kind.
func (m *Meta) Base() *Meta {
	return m
}

// metaTimes shadows the Meta timestamps when a kind is marshalled, so they
// are written in TimeLayout.
type metaTimes struct {
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (m Meta) times() metaTimes {
	return metaTimes{CreatedAt: FormatTime(m.CreatedAt), UpdatedAt: FormatTime(m.UpdatedAt)}
}

// Touch stamps the timestamps for a write at now.
// CreatedAt is only set when it is still zero.
func (m *Meta) Touch(now time.Time) {
	now = now.UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if m.Version == 0 {
		m.Version = SchemaVersion
	}
}

// Document is the tagged variant implemented by the four document kinds.
type Document interface {
	// Base returns the shared metadata.
	Base() *Meta

	// Validate checks the kind-specific field set.
	Validate() error

	// Touch stamps the timestamps for a write at now.
	Touch(now time.Time)
}

// Address is a postal address embedded in customers and orders.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

// Product is a catalogue item.
type Product struct {
	Meta
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Price       float64        `json:"price"`
	Stock       int            `json:"stock"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Metadata    map[string]any `json:"metadata,omitempty"`

	// PriceCategory and SearchKeywords are filled by ETL enrichment.
	PriceCategory  string   `json:"price_category,omitempty"`
	SearchKeywords []string `json:"search_keywords,omitempty"`
}

// MarshalJSON writes the product with fixed-width timestamps.
func (p Product) MarshalJSON() ([]byte, error) {
	type alias Product
	return json.Marshal(struct {
		alias
		metaTimes
	}{alias(p), p.times()})
}

// NewProduct builds a validated product document.
func NewProduct(name, category string, price float64, stock int) (*Product, error) {
	p := &Product{
		Meta:     Meta{Type: KindProduct, Version: SchemaVersion},
		Name:     name,
		Category: category,
		Price:    price,
		Stock:    stock,
		Status:   "active",
		Metadata: map[string]any{},
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the product field set.
func (p *Product) Validate() error {
	switch {
	case p.Type != KindProduct:
		return fmt.Errorf("%w: product has type %q", ErrInvalidInput, p.Type)
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: product name is required", ErrInvalidInput)
	case strings.TrimSpace(p.Category) == "":
		return fmt.Errorf("%w: product category is required", ErrInvalidInput)
	case p.Price < 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0):
		return fmt.Errorf("%w: product price must be a non-negative number, got %v", ErrInvalidInput, p.Price)
	case p.Stock < 0:
		return fmt.Errorf("%w: product stock must not be negative, got %d", ErrInvalidInput, p.Stock)
	}
	return nil
}

// Customer is a buyer.
type Customer struct {
	Meta
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Phone    string         `json:"phone,omitempty"`
	Address  *Address       `json:"address,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MarshalJSON writes the customer with fixed-width timestamps.
func (c Customer) MarshalJSON() ([]byte, error) {
	type alias Customer
	return json.Marshal(struct {
		alias
		metaTimes
	}{alias(c), c.times()})
}

// NewCustomer builds a validated customer document.
func NewCustomer(name, email string) (*Customer, error) {
	c := &Customer{
		Meta:     Meta{Type: KindCustomer, Version: SchemaVersion},
		Name:     name,
		Email:    email,
		Metadata: map[string]any{},
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the customer field set.
func (c *Customer) Validate() error {
	switch {
	case c.Type != KindCustomer:
		return fmt.Errorf("%w: customer has type %q", ErrInvalidInput, c.Type)
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	case strings.TrimSpace(c.Email) == "":
		return fmt.Errorf("%w: customer email is required", ErrInvalidInput)
	}
	return nil
}

// LineItem is one product line within an order.
type LineItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Subtotal returns quantity times unit price, rounded to cents.
func (li LineItem) Subtotal() float64 {
	return RoundTo(float64(li.Quantity)*li.UnitPrice, 2)
}

// MarshalJSON writes the line item with its derived total_price.
func (li LineItem) MarshalJSON() ([]byte, error) {
	type alias LineItem
	return json.Marshal(struct {
		alias
		TotalPrice float64 `json:"total_price"`
	}{alias(li), li.Subtotal()})
}

// Order is a purchase by a customer.
// Its total is always derived from the line items; a stored "total" is
// written for readers of the raw document but never read back.
type Order struct {
	Meta
	CustomerID      string     `json:"customer_id"`
	Items           []LineItem `json:"products"`
	Status          string     `json:"status"`
	ShippingAddress *Address   `json:"shipping_address,omitempty"`
}

// NewOrder builds a validated order document.
func NewOrder(customerID string, items []LineItem, status string) (*Order, error) {
	if status == "" {
		status = StatusPending
	}
	o := &Order{
		Meta:       Meta{Type: KindOrder, Version: SchemaVersion},
		CustomerID: customerID,
		Items:      items,
		Status:     status,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Total returns the sum of line item subtotals.
func (o *Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	return RoundTo(total, 2)
}

// OrderedAt returns the order timestamp.
func (o *Order) OrderedAt() time.Time {
	return o.CreatedAt
}

// IsCancelled reports whether the order is excluded from revenue.
func (o *Order) IsCancelled() bool {
	return strings.EqualFold(o.Status, StatusCancelled)
}

// Validate checks the order field set.
func (o *Order) Validate() error {
	if o.Type != KindOrder {
		return fmt.Errorf("%w: order has type %q", ErrInvalidInput, o.Type)
	}
	if strings.TrimSpace(o.CustomerID) == "" {
		return fmt.Errorf("%w: order customer reference is required", ErrInvalidInput)
	}
	for i, item := range o.Items {
		if item.ProductID == "" {
			return fmt.Errorf("%w: line item %d has no product reference", ErrInvalidInput, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: line item %d quantity must be positive, got %d", ErrInvalidInput, i, item.Quantity)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%w: line item %d unit price must not be negative", ErrInvalidInput, i)
		}
	}
	return nil
}

// MarshalJSON writes the order with its derived total.
func (o Order) MarshalJSON() ([]byte, error) {
	type alias Order
	return json.Marshal(struct {
		alias
		metaTimes
		Total float64 `json:"total"`
	}{alias(o), o.times(), o.Total()})
}

// Event is a free-form analytics or telemetry record.
type Event struct {
	Meta
	EventType  string         `json:"event_type"`
	EntityID   string         `json:"entity_id"`
	EntityType string         `json:"entity_type"`
	EventData  map[string]any `json:"event_data,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// MarshalJSON writes the event with fixed-width timestamps.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	return json.Marshal(struct {
		alias
		metaTimes
		Timestamp string `json:"timestamp"`
	}{alias(e), e.times(), FormatTime(e.Timestamp)})
}

// NewEvent builds a validated event document.
func NewEvent(eventType, entityID string, entityType Kind, data map[string]any) (*Event, error) {
	if data == nil {
		data = map[string]any{}
	}
	e := &Event{
		Meta:       Meta{Type: KindEvent, Version: SchemaVersion},
		EventType:  eventType,
		EntityID:   entityID,
		EntityType: string(entityType),
		EventData:  data,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks the event field set.
func (e *Event) Validate() error {
	switch {
	case e.Type != KindEvent:
		return fmt.Errorf("%w: event has type %q", ErrInvalidInput, e.Type)
	case strings.TrimSpace(e.EventType) == "":
		return fmt.Errorf("%w: event type is required", ErrInvalidInput)
	case strings.TrimSpace(e.EntityID) == "":
		return fmt.Errorf("%w: event subject reference is required", ErrInvalidInput)
	}
	return nil
}

// Touch stamps the event; an unset timestamp follows created_at.
func (e *Event) Touch(now time.Time) {
	e.Meta.Touch(now)
	if e.Timestamp.IsZero() {
		e.Timestamp = e.CreatedAt
	}
}

// Ensure every kind implements Document.
var (
	_ Document = (*Product)(nil)
	_ Document = (*Customer)(nil)
	_ Document = (*Order)(nil)
	_ Document = (*Event)(nil)
)

// DecodeDocument decodes a raw JSON document into its typed variant,
// switching on the "type" discriminator.
func DecodeDocument(data []byte) (Document, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: decoding document: %v", ErrInvalidInput, err)
	}

	var doc Document
	switch head.Type {
	case KindProduct:
		doc = &Product{}
	case KindCustomer:
		doc = &Customer{}
	case KindOrder:
		doc = &Order{}
	case KindEvent:
		doc = &Event{}
	default:
		return nil, fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, head.Type)
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrInvalidInput, head.Type, err)
	}
	return doc, nil
}

// RoundTo rounds v half away from zero to the given number of decimals.
func RoundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
