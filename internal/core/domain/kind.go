package domain

import (
	"fmt"
	"strings"
)

// SchemaVersion is stamped on every document this layer writes.
const SchemaVersion = 1

// Kind is the discriminator stored in every document's "type" field.
type Kind string

// Document kinds.
const (
	KindProduct  Kind = "product"
	KindCustomer Kind = "customer"
	KindOrder    Kind = "order"
	KindEvent    Kind = "analytics_event"
)

// FieldType is the JSON type of a declared field.
type FieldType int

// Field types. FieldJSON covers objects and arrays.
const (
	FieldUnknown FieldType = iota
	FieldString
	FieldNumber
	FieldBool
	FieldJSON
)

type field struct {
	name string
	typ  FieldType
}

// Common fields shared by every kind.
var commonFields = []field{
	{"_id", FieldString}, {"_rev", FieldString}, {"type", FieldString},
	{"created_at", FieldString}, {"updated_at", FieldString}, {"version", FieldNumber},
	{"deleted", FieldBool}, {"deleted_at", FieldString},
}

// kindFields lists the declared schema of each kind, without common fields.
var kindFields = map[Kind][]field{
	KindProduct: {
		{"name", FieldString}, {"category", FieldString}, {"price", FieldNumber},
		{"stock", FieldNumber}, {"description", FieldString}, {"status", FieldString},
		{"metadata", FieldJSON}, {"price_category", FieldString}, {"search_keywords", FieldJSON},
	},
	KindCustomer: {
		{"name", FieldString}, {"email", FieldString}, {"phone", FieldString},
		{"address", FieldJSON}, {"metadata", FieldJSON},
	},
	KindOrder: {
		{"customer_id", FieldString}, {"products", FieldJSON}, {"total", FieldNumber},
		{"status", FieldString}, {"shipping_address", FieldJSON},
	},
	KindEvent: {
		{"event_type", FieldString}, {"entity_id", FieldString}, {"entity_type", FieldString},
		{"event_data", FieldJSON}, {"user_id", FieldString}, {"timestamp", FieldString},
	},
}

// AllKinds returns every document kind in dependency order.
func AllKinds() []Kind {
	return []Kind{KindProduct, KindCustomer, KindOrder, KindEvent}
}

// IsValid returns true if the kind is recognised.
func (k Kind) IsValid() bool {
	_, ok := kindFields[k]
	return ok
}

// String returns the string representation.
func (k Kind) String() string {
	return string(k)
}

// IDPrefix returns the prefix used for generated document identifiers.
func (k Kind) IDPrefix() string {
	switch k {
	case KindEvent:
		return "event_"
	case "":
		return ""
	default:
		return string(k) + "_"
	}
}

// Label returns a human-readable plural label.
func (k Kind) Label() string {
	switch k {
	case KindProduct:
		return "Products"
	case KindCustomer:
		return "Customers"
	case KindOrder:
		return "Orders"
	case KindEvent:
		return "Events"
	default:
		return unknownDescription
	}
}

// Fields returns the declared field names for the kind, common fields first.
// Unknown kinds only declare the common fields.
func (k Kind) Fields() []string {
	fields := make([]string, 0, len(commonFields)+len(kindFields[k]))
	for _, f := range commonFields {
		fields = append(fields, f.name)
	}
	for _, f := range kindFields[k] {
		fields = append(fields, f.name)
	}
	return fields
}

// FieldType returns the declared type of a top-level field, or
// FieldUnknown when the kind does not declare it.
func (k Kind) FieldType(name string) FieldType {
	for _, f := range commonFields {
		if f.name == name {
			return f.typ
		}
	}
	for _, f := range kindFields[k] {
		if f.name == name {
			return f.typ
		}
	}
	return FieldUnknown
}

// HasField reports whether the top-level segment of a dotted field path
// belongs to the kind's declared schema.
func (k Kind) HasField(field string) bool {
	top, _, _ := strings.Cut(field, ".")
	for _, f := range k.Fields() {
		if f == top {
			return true
		}
	}
	return false
}

// ParseKind converts user input into a Kind. "event" is accepted as an
// alias for analytics events.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "event", "events":
		return KindEvent, nil
	case "products", "customers", "orders":
		return Kind(strings.TrimSuffix(string(k), "s")), nil
	default:
		if k.IsValid() {
			return k, nil
		}
		return "", fmt.Errorf("%w: unknown document kind %q", ErrInvalidInput, s)
	}
}
