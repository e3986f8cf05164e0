package services

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/mango"
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
	"github.com/custodia-labs/couchlab/internal/logger"
)

// Ensure ETLService implements the interface.
var _ driving.ETLService = (*ETLService)(nil)

// ETLService cleans, enriches, generates and loads the sample dataset
// through the CRUD service.
type ETLService struct {
	crud  driving.CRUDService
	now   func() time.Time
	newID func(kind domain.Kind) string
}

// NewETLService creates a new ETL service.
func NewETLService(crud driving.CRUDService) *ETLService {
	return &ETLService{
		crud: crud,
		now:  time.Now,
		newID: func(kind domain.Kind) string {
			return kind.IDPrefix() + uuid.NewString()
		},
	}
}

// CleanText trims and collapses whitespace.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ValidEmail applies the loose check used for imported customers: exactly
// one "@" with a dotted domain.
func ValidEmail(email string) bool {
	local, host, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(host, "@") {
		return false
	}
	return strings.Contains(host, ".")
}

// PriceCategory buckets a price: budget below 50, mid-range below 200,
// premium otherwise.
func PriceCategory(price float64) string {
	switch {
	case price < 50:
		return domain.PriceBudget
	case price < 200:
		return domain.PriceMidRange
	default:
		return domain.PricePremium
	}
}

// EnrichProduct fills the price category and the sorted, de-duplicated
// lower-case search keywords of name, category and description.
func EnrichProduct(p *domain.Product) {
	p.PriceCategory = PriceCategory(p.Price)

	seen := make(map[string]bool)
	var keywords []string
	for _, text := range []string{p.Name, p.Category, p.Description} {
		for _, word := range strings.Fields(strings.ToLower(text)) {
			if !seen[word] {
				seen[word] = true
				keywords = append(keywords, word)
			}
		}
	}
	sort.Strings(keywords)
	p.SearchKeywords = keywords
}

// Run generates the dataset and loads it kind by kind so that references
// resolve in dependency order.
func (s *ETLService) Run(ctx context.Context, opts domain.ETLOptions) domain.Result[domain.ETLReport] {
	if s.crud == nil {
		return domain.Fail[domain.ETLReport](domain.ErrNotImplemented, "CRUD service not configured")
	}
	if opts.Orders < 0 || opts.Events < 0 {
		err := fmt.Errorf("%w: order and event counts must not be negative", domain.ErrInvalidInput)
		return domain.Fail[domain.ETLReport](err, "ETL failed")
	}
	seed := opts.Seed
	if seed == 0 {
		seed = s.now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // sample data only

	var report domain.ETLReport

	logger.Section("ETL")
	products := s.products()
	customers, warnings := s.customers()
	report.Warnings = warnings
	for _, w := range warnings {
		logger.Warn("etl: %s", w)
	}
	if len(products) == 0 || len(customers) == 0 {
		err := fmt.Errorf("%w: no valid products or customers to build orders from", domain.ErrInvalidInput)
		return domain.Fail[domain.ETLReport](err, "ETL failed")
	}
	orders := s.orders(rng, customers, products, opts.Orders)
	events := s.events(rng, customers, products, orders, opts.Events)

	report.Products = len(products)
	report.Customers = len(customers)
	report.Orders = len(orders)
	report.Events = len(events)

	batches := [][]domain.Document{
		toDocuments(products),
		toDocuments(customers),
		toDocuments(orders),
		toDocuments(events),
	}
	for _, batch := range batches {
		if len(batch) == 0 {
			continue
		}
		res := s.crud.BulkCreate(ctx, batch)
		if !res.Success {
			return domain.Forward[domain.ETLReport](res)
		}
		report.Total += res.Data.Total
		report.Inserted += res.Data.SuccessCount
		report.Failed += res.Data.ErrorCount
		logger.Debug("etl: stored %d of %d %s", res.Data.SuccessCount, res.Data.Total, batch[0].Base().Type.Label())
	}

	return domain.Ok(report, "%d of %d documents loaded", report.Inserted, report.Total)
}

// Verify counts stored documents per kind.
func (s *ETLService) Verify(ctx context.Context) domain.Result[[]domain.KindCount] {
	if s.crud == nil {
		return domain.Fail[[]domain.KindCount](domain.ErrNotImplemented, "CRUD service not configured")
	}
	counts := make([]domain.KindCount, 0, len(domain.AllKinds()))
	for _, kind := range domain.AllKinds() {
		q, err := mango.NewBuilder(kind).Fields("_id").Build()
		if err != nil {
			return domain.Fail[[]domain.KindCount](err, "verify failed")
		}
		res := s.crud.FindAll(ctx, q)
		if !res.Success {
			return domain.Forward[[]domain.KindCount](res)
		}
		counts = append(counts, domain.KindCount{Kind: kind, Count: len(res.Data)})
	}
	return domain.Ok(counts, "verified %d kinds", len(counts))
}

func (s *ETLService) products() []*domain.Product {
	out := make([]*domain.Product, 0, len(sampleProducts))
	for _, sp := range sampleProducts {
		p, err := domain.NewProduct(CleanText(sp.name), sp.category, sp.price, sp.stock)
		if err != nil {
			logger.Warn("etl: skipping product %q: %v", sp.name, err)
			continue
		}
		p.ID = s.newID(domain.KindProduct)
		p.Description = CleanText(sp.description)
		for k, v := range sp.metadata {
			p.Metadata[k] = v
		}
		EnrichProduct(p)
		out = append(out, p)
	}
	return out
}

func (s *ETLService) customers() ([]*domain.Customer, []string) {
	var warnings []string
	out := make([]*domain.Customer, 0, len(sampleCustomers))
	for _, sc := range sampleCustomers {
		name := CleanText(sc.name)
		if !ValidEmail(sc.email) {
			warnings = append(warnings, fmt.Sprintf("invalid email for %s", name))
			continue
		}
		c, err := domain.NewCustomer(name, sc.email)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		c.ID = s.newID(domain.KindCustomer)
		c.Phone = sc.phone
		addr := sc.address
		c.Address = &addr
		out = append(out, c)
	}
	return out, warnings
}

// orders draws 1 to 4 line items of quantity 1 to 3 per order; roughly
// 70% of orders are back-dated by 1 to 90 days.
func (s *ETLService) orders(rng *rand.Rand, customers []*domain.Customer, products []*domain.Product, n int) []*domain.Order {
	now := s.now().UTC()
	out := make([]*domain.Order, 0, n)
	for i := 0; i < n; i++ {
		customer := customers[rng.Intn(len(customers))]
		items := make([]domain.LineItem, 1+rng.Intn(4))
		for j := range items {
			p := products[rng.Intn(len(products))]
			items[j] = domain.LineItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    1 + rng.Intn(3),
				UnitPrice:   p.Price,
			}
		}
		status := domain.OrderStatuses[rng.Intn(len(domain.OrderStatuses))]

		o, err := domain.NewOrder(customer.ID, items, status)
		if err != nil {
			logger.Warn("etl: skipping generated order: %v", err)
			continue
		}
		o.ID = s.newID(domain.KindOrder)
		if customer.Address != nil {
			addr := *customer.Address
			o.ShippingAddress = &addr
		}
		o.CreatedAt = now
		if rng.Float64() > 0.3 {
			o.CreatedAt = now.AddDate(0, 0, -(1 + rng.Intn(90)))
		}
		o.UpdatedAt = o.CreatedAt
		out = append(out, o)
	}
	return out
}

// events generates telemetry spread over the last 30 days between 08:00
// and 22:00. Purchases point at orders, every other type at products.
func (s *ETLService) events(rng *rand.Rand, customers []*domain.Customer, products []*domain.Product, orders []*domain.Order, n int) []*domain.Event {
	now := s.now().UTC()
	out := make([]*domain.Event, 0, n)
	for i := 0; i < n; i++ {
		eventType := domain.EventTypes[rng.Intn(len(domain.EventTypes))]
		customer := customers[rng.Intn(len(customers))]

		var (
			e   *domain.Event
			err error
		)
		if eventType == "purchase" && len(orders) > 0 {
			o := orders[rng.Intn(len(orders))]
			e, err = domain.NewEvent(eventType, o.ID, domain.KindOrder, map[string]any{
				"order_total":   o.Total(),
				"product_count": len(o.Items),
			})
		} else {
			p := products[rng.Intn(len(products))]
			e, err = domain.NewEvent(eventType, p.ID, domain.KindProduct, map[string]any{
				"product_name":     p.Name,
				"product_category": p.Category,
				"product_price":    p.Price,
			})
		}
		if err != nil {
			logger.Warn("etl: skipping generated event: %v", err)
			continue
		}
		e.ID = s.newID(domain.KindEvent)
		e.UserID = customer.ID

		day := now.AddDate(0, 0, -rng.Intn(31))
		at := time.Date(day.Year(), day.Month(), day.Day(), 8+rng.Intn(15), rng.Intn(60), 0, 0, time.UTC)
		if at.After(now) {
			at = now
		}
		e.Timestamp = at
		e.CreatedAt = at
		out = append(out, e)
	}
	return out
}

func toDocuments[T domain.Document](docs []T) []domain.Document {
	out := make([]domain.Document, len(docs))
	for i, d := range docs {
		out[i] = d
	}
	return out
}
