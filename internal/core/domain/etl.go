package domain

// Price categories assigned by product enrichment.
const (
	PriceBudget   = "budget"
	PriceMidRange = "mid-range"
	PricePremium  = "premium"
)

// Event types generated for sample telemetry.
var EventTypes = []string{"product_view", "add_to_cart", "remove_from_cart", "purchase", "search"}

// ETLOptions controls sample data generation.
type ETLOptions struct {
	// Orders and Events are the number of generated records.
	Orders int
	Events int

	// Seed makes generation deterministic. Zero picks a time-based seed.
	Seed int64
}

// DefaultETLOptions mirrors the sample dataset size.
func DefaultETLOptions() ETLOptions {
	return ETLOptions{Orders: 25, Events: 150}
}

// ETLReport summarises an ETL run.
type ETLReport struct {
	Products  int      `json:"products"`
	Customers int      `json:"customers"`
	Orders    int      `json:"orders"`
	Events    int      `json:"events"`
	Total     int      `json:"total"`
	Inserted  int      `json:"inserted"`
	Failed    int      `json:"failed"`
	Warnings  []string `json:"warnings,omitempty"`
}

// KindCount is the number of stored documents of one kind.
type KindCount struct {
	Kind  Kind `json:"kind"`
	Count int  `json:"count"`
}
