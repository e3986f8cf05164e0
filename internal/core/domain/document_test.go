package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	p, err := NewProduct("Laptop", "Electronics", 999.99, 3)
	require.NoError(t, err)
	assert.Equal(t, KindProduct, p.Type)
	assert.Equal(t, SchemaVersion, p.Version)

	tests := []struct {
		name     string
		pname    string
		category string
		price    float64
		stock    int
	}{
		{"missing name", " ", "Electronics", 1, 1},
		{"missing category", "Laptop", "", 1, 1},
		{"negative price", "Laptop", "Electronics", -1, 1},
		{"negative stock", "Laptop", "Electronics", 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProduct(tt.pname, tt.category, tt.price, tt.stock)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestNewCustomer(t *testing.T) {
	c, err := NewCustomer("Ana", "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, KindCustomer, c.Type)

	_, err = NewCustomer("Ana", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewOrder(t *testing.T) {
	items := []LineItem{
		{ProductID: "product_1", Quantity: 2, UnitPrice: 19.99},
		{ProductID: "product_2", Quantity: 1, UnitPrice: 5},
	}
	o, err := NewOrder("customer_1", items, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 39.98, items[0].Subtotal())
	assert.Equal(t, 44.98, o.Total())
	assert.False(t, o.IsCancelled())

	o.Status = "Cancelled"
	assert.True(t, o.IsCancelled())

	_, err = NewOrder("", items, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewOrder("customer_1", []LineItem{{ProductID: "product_1", Quantity: 0}}, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = NewOrder("customer_1", []LineItem{{Quantity: 1}}, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOrder_MarshalJSONWritesDerivedTotal(t *testing.T) {
	o, err := NewOrder("customer_1", []LineItem{{ProductID: "product_1", Quantity: 3, UnitPrice: 10}}, StatusShipped)
	require.NoError(t, err)

	raw, err := ToRaw(o)
	require.NoError(t, err)
	assert.Equal(t, 30.0, raw["total"])
	items := raw["products"].([]any)
	assert.Equal(t, 30.0, items[0].(map[string]any)["total_price"])

	// A stored total is never trusted on the way back.
	raw["total"] = 1.0
	doc, err := raw.Decode()
	require.NoError(t, err)
	assert.Equal(t, 30.0, doc.(*Order).Total())
}

func TestFormatTime_FixedWidth(t *testing.T) {
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-10T12:00:00.000000000Z", FormatTime(base))
	assert.Equal(t, "2024-03-10T12:00:00.100000000Z", FormatTime(base.Add(100*time.Millisecond)))
	assert.Equal(t, "2024-03-10T11:00:00.000000000Z", FormatTime(base.In(time.FixedZone("X", 3600)).Add(-time.Hour)))

	// Text order follows time order inside one second.
	assert.Less(t, FormatTime(base), FormatTime(base.Add(500*time.Millisecond)))
	assert.Less(t, FormatTime(base.Add(100*time.Millisecond)), FormatTime(base.Add(120*time.Millisecond)))
}

func TestDocuments_MarshalFixedWidthTimestamps(t *testing.T) {
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	want := "2024-03-10T12:00:00.000000000Z"

	p, err := NewProduct("Desk", "Furniture", 120, 2)
	require.NoError(t, err)
	c, err := NewCustomer("Ada", "ada@example.com")
	require.NoError(t, err)
	o, err := NewOrder("customer_1", nil, "")
	require.NoError(t, err)
	e, err := NewEvent("search", "product_1", KindProduct, nil)
	require.NoError(t, err)

	for _, doc := range []Document{p, c, o, e} {
		doc.Touch(at)
		raw, err := ToRaw(doc)
		require.NoError(t, err)
		assert.Equal(t, want, raw["created_at"])
		assert.Equal(t, want, raw["updated_at"])

		back, err := raw.Decode()
		require.NoError(t, err)
		assert.True(t, at.Equal(back.Base().CreatedAt))
	}

	raw, err := ToRaw(e)
	require.NoError(t, err)
	assert.Equal(t, want, raw["timestamp"])
	assert.Equal(t, "Desk", mustRaw(t, p)["name"])
}

func mustRaw(t *testing.T, doc Document) RawDoc {
	t.Helper()
	raw, err := ToRaw(doc)
	require.NoError(t, err)
	return raw
}

func TestEvent_TouchDefaultsTimestamp(t *testing.T) {
	e, err := NewEvent("page_view", "product_1", KindProduct, nil)
	require.NoError(t, err)
	assert.NotNil(t, e.EventData)

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.FixedZone("X", 3600))
	e.Touch(now)
	assert.Equal(t, now.UTC(), e.Timestamp)
	assert.Equal(t, now.UTC(), e.CreatedAt)

	_, err = NewEvent("", "product_1", KindProduct, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMeta_TouchKeepsCreatedAt(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := Meta{CreatedAt: created}
	later := created.Add(48 * time.Hour)
	m.Touch(later)
	assert.Equal(t, created, m.CreatedAt)
	assert.Equal(t, later, m.UpdatedAt)
	assert.Equal(t, SchemaVersion, m.Version)
}

func TestDecodeDocument(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Kind
	}{
		{"product", `{"type":"product","name":"Laptop","price":1}`, KindProduct},
		{"customer", `{"type":"customer","name":"Ana"}`, KindCustomer},
		{"order", `{"type":"order","customer_id":"c"}`, KindOrder},
		{"event", `{"type":"analytics_event","event_type":"login"}`, KindEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := DecodeDocument([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Base().Type)
		})
	}

	_, err := DecodeDocument([]byte(`{"type":"widget"}`))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = DecodeDocument([]byte(`[`))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = DecodeDocument([]byte(`{"type":"product","price":"free"}`))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRawDoc_Accessors(t *testing.T) {
	d := RawDoc{"_id": "order_1", "_rev": "2-abc", "type": "order"}
	assert.Equal(t, "order_1", d.ID())
	assert.Equal(t, "2-abc", d.Rev())
	assert.Equal(t, KindOrder, d.Kind())

	c := d.Clone()
	c["_id"] = "order_2"
	assert.Equal(t, "order_1", d.ID())

	assert.Empty(t, RawDoc{}.ID())
}

func TestSortField_JSON(t *testing.T) {
	data, err := json.Marshal([]SortField{{Field: "price", Direction: SortDesc}, {Field: "name"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"price":"desc"},{"name":"asc"}]`, string(data))

	var fields []SortField
	require.NoError(t, json.Unmarshal([]byte(`["name",{"price":"desc"}]`), &fields))
	assert.Equal(t, []SortField{{Field: "name", Direction: SortAsc}, {Field: "price", Direction: SortDesc}}, fields)
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 1.01, RoundTo(1.005000001, 2))
	assert.Equal(t, -2.5, RoundTo(-2.46, 1))
	assert.Equal(t, 3.0, RoundTo(2.5, 0))
}
