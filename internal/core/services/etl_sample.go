package services

import "github.com/custodia-labs/couchlab/internal/core/domain"

type sampleProduct struct {
	name        string
	category    string
	price       float64
	stock       int
	description string
	metadata    map[string]any
}

type sampleCustomer struct {
	name    string
	email   string
	phone   string
	address domain.Address
}

var sampleProducts = []sampleProduct{
	{
		name: "Smartphone XY Pro", category: "Electronics", price: 699.99, stock: 50,
		description: "Latest smartphone with advanced features",
		metadata:    map[string]any{"brand": "TechCorp", "warranty": "2 years", "color": "Black"},
	},
	{
		name: "Coffee Maker Deluxe", category: "Home & Kitchen", price: 89.99, stock: 120,
		description: "Programmable coffee maker with timer",
		metadata:    map[string]any{"capacity": "12 cups", "material": "Stainless Steel"},
	},
	{
		name: "Wireless Headphones", category: "Electronics", price: 199.99, stock: 75,
		description: "Noise-canceling wireless headphones",
		metadata:    map[string]any{"battery_life": "30 hours", "wireless": true},
	},
	{
		name: "Yoga Mat Premium", category: "Sports & Fitness", price: 49.99, stock: 200,
		description: "Non-slip yoga mat with carrying strap",
		metadata:    map[string]any{"thickness": "6mm", "material": "TPE"},
	},
	{
		name: "LED Desk Lamp", category: "Home & Kitchen", price: 35.99, stock: 90,
		description: "Adjustable LED desk lamp with USB charging",
		metadata:    map[string]any{"power": "12W", "adjustable": true},
	},
}

var sampleCustomers = []sampleCustomer{
	{
		name: "Alice Johnson", email: "alice.johnson@email.com", phone: "+1-555-0101",
		address: domain.Address{Street: "123 Main St", City: "New York", Zip: "10001", Country: "USA"},
	},
	{
		name: "Bob Smith", email: "bob.smith@email.com", phone: "+1-555-0102",
		address: domain.Address{Street: "456 Oak Ave", City: "Los Angeles", Zip: "90210", Country: "USA"},
	},
	{
		name: "Carol Davis", email: "carol.davis@email.com", phone: "+1-555-0103",
		address: domain.Address{Street: "789 Pine St", City: "Chicago", Zip: "60601", Country: "USA"},
	},
}
