package sales

import (
	"context"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/couchlab/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/ports/driving"
)

// MockAnalyticsService records the requested sales range.
type MockAnalyticsService struct {
	driving.AnalyticsService

	SalesFunc func(ctx context.Context, from, to *domain.YearMonth) domain.Result[domain.SalesByMonth]
	from, to  *domain.YearMonth
	calls     int
}

func (m *MockAnalyticsService) SalesByMonth(ctx context.Context, from, to *domain.YearMonth) domain.Result[domain.SalesByMonth] {
	m.calls++
	m.from, m.to = from, to
	if m.SalesFunc != nil {
		return m.SalesFunc(ctx, from, to)
	}
	return domain.Ok(domain.SalesByMonth{}, "no sales")
}

func sampleSales() domain.SalesByMonth {
	return domain.SalesByMonth{Buckets: []domain.SalesBucket{
		{Period: domain.YearMonth{Year: 2024, Month: 1}, Label: "2024-01", OrderCount: 2, Revenue: 150,
			StatusCounts: map[string]int{"delivered": 2}},
		{Period: domain.YearMonth{Year: 2024, Month: 2}, Label: "2024-02", OrderCount: 1, Revenue: 1050.5,
			StatusCounts: map[string]int{"pending": 1}},
	}}
}

func load(t *testing.T, v *View, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	v.Update(cmd())
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil)

	require.NotNil(t, v)
	assert.NotNil(t, v.styles)
	assert.False(t, v.Trailing())
	assert.Nil(t, v.Result())
}

func TestView_Init_LoadsAllMonths(t *testing.T) {
	mock := &MockAnalyticsService{
		SalesFunc: func(context.Context, *domain.YearMonth, *domain.YearMonth) domain.Result[domain.SalesByMonth] {
			return domain.Ok(sampleSales(), "2 months")
		},
	}
	v := NewView(nil, mock)
	v.SetDimensions(120, 40)

	load(t, v, v.Init())

	assert.Nil(t, mock.from)
	assert.Nil(t, mock.to)
	require.NotNil(t, v.Result())

	out := v.View()
	assert.Contains(t, out, "All months")
	assert.Contains(t, out, "2024-01")
	assert.Contains(t, out, "1,050.50")
	assert.Contains(t, out, "1,200.50", "total revenue")
	assert.Contains(t, out, "delivered 2  pending 1")
}

func TestView_ToggleTrailing(t *testing.T) {
	mock := &MockAnalyticsService{}
	v := NewView(nil, mock)
	v.now = func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) }

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	load(t, v, cmd)

	assert.True(t, v.Trailing())
	require.NotNil(t, mock.from)
	require.NotNil(t, mock.to)
	assert.Equal(t, domain.YearMonth{Year: 2023, Month: 4}, *mock.from)
	assert.Equal(t, domain.YearMonth{Year: 2024, Month: 3}, *mock.to)
	assert.Contains(t, v.View(), "2023-04 to 2024-03")

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	load(t, v, cmd)
	assert.False(t, v.Trailing())
	assert.Nil(t, mock.from)
}

func TestView_FailedEnvelope(t *testing.T) {
	mock := &MockAnalyticsService{
		SalesFunc: func(context.Context, *domain.YearMonth, *domain.YearMonth) domain.Result[domain.SalesByMonth] {
			return domain.Fail[domain.SalesByMonth](domain.ErrUnavailable, "failed to query sales view")
		},
	}
	v := NewView(nil, mock)

	load(t, v, v.Init())

	out := v.View()
	assert.Contains(t, out, "No data available")
	assert.Contains(t, out, "failed to query sales view")
}

func TestView_NilService(t *testing.T) {
	v := NewView(nil, nil)

	load(t, v, v.Init())

	require.NotNil(t, v.Result())
	assert.False(t, v.Result().Success)
}

func TestView_EmptyAndLoading(t *testing.T) {
	v := NewView(nil, &MockAnalyticsService{})

	cmd := v.Init()
	assert.Contains(t, v.View(), "Loading sales...")

	load(t, v, cmd)
	assert.Contains(t, v.View(), "No orders in range")
}

func TestView_Scroll(t *testing.T) {
	buckets := make([]domain.SalesBucket, 30)
	for i := range buckets {
		ym := domain.YearMonth{Year: 2020 + i/12, Month: i%12 + 1}
		buckets[i] = domain.SalesBucket{Period: ym, Label: ym.Label(), OrderCount: 1, Revenue: float64(i)}
	}
	mock := &MockAnalyticsService{
		SalesFunc: func(context.Context, *domain.YearMonth, *domain.YearMonth) domain.Result[domain.SalesByMonth] {
			return domain.Ok(domain.SalesByMonth{Buckets: buckets}, "30 months")
		},
	}
	v := NewView(nil, mock)
	v.SetDimensions(100, 20)
	load(t, v, v.Init())

	down := tea.KeyMsg{Type: tea.KeyDown}
	for i := 0; i < 100; i++ {
		v.Update(down)
	}
	assert.Equal(t, 20, v.scrollOffset, "30 buckets with 10 visible rows")

	out := v.View()
	assert.Contains(t, out, "2022-06")
	assert.NotContains(t, out, "2020-01")
	assert.Contains(t, out, fmt.Sprintf("[21-30 of %d]", 30))

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 19, v.scrollOffset)
}

func TestView_Update_Keys(t *testing.T) {
	mock := &MockAnalyticsService{}
	v := NewView(nil, mock)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	load(t, v, cmd)
	assert.Equal(t, 1, mock.calls)

	_, cmd = v.Update(messages.RefreshRequested{})
	load(t, v, cmd)
	assert.Equal(t, 2, mock.calls)
}
