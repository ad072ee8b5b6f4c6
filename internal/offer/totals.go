package offer

import (
	"sync"

	"github.com/shopspring/decimal"
)

// DiscountRecorder receives every discount an offer grants. It backs the
// lifetime total_discount counter, so it accumulates across evaluations.
type DiscountRecorder interface {
	RecordDiscount(offerID string, amount decimal.Decimal)
}

// MemoryTotals is a DiscountRecorder that keeps totals in memory.
type MemoryTotals struct {
	mu     sync.Mutex
	totals map[string]decimal.Decimal
	order  []string
}

func NewMemoryTotals() *MemoryTotals {
	return &MemoryTotals{totals: make(map[string]decimal.Decimal)}
}

func (m *MemoryTotals) RecordDiscount(offerID string, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.totals[offerID]; !ok {
		m.order = append(m.order, offerID)
	}
	m.totals[offerID] = m.totals[offerID].Add(amount)
}

func (m *MemoryTotals) Total(offerID string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals[offerID]
}

// Each calls fn for every offer with a recorded total, in first-recorded order.
func (m *MemoryTotals) Each(fn func(offerID string, total decimal.Decimal)) {
	m.mu.Lock()
	order := append([]string(nil), m.order...)
	totals := make(map[string]decimal.Decimal, len(m.totals))
	for k, v := range m.totals {
		totals[k] = v
	}
	m.mu.Unlock()
	for _, id := range order {
		fn(id, totals[id])
	}
}
