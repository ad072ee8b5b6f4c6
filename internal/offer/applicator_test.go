package offer

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicatorPercentageOffCount(t *testing.T) {
	p := product("P")
	b := basketOf(line(p, 5, "10.00"))
	r := rangeOf("R", "P")
	o := exclusive("o1", CountCondition{Rng: r, Value: 3}, PercentageBenefit{Rng: r, Value: dec("10"), MaxAffectedItems: 3})

	ledger := NewLedger()
	apps, err := NewApplicator().Evaluate(Evaluation{Basket: b, Ledger: ledger, Offers: []*ConditionalOffer{o}})
	require.NoError(t, err)

	app, ok := apps.Get("o1")
	require.True(t, ok)
	assert.Equal(t, "3.00", app.Discount.StringFixed(2))
	assert.Equal(t, 1, app.Frequency, "two units left cannot satisfy a second application")
	assert.Equal(t, 3, ledger.Consumed(0))
	assert.Equal(t, "3.00", apps.TotalBasketDiscount().StringFixed(2))
}

func TestApplicatorMultibuy(t *testing.T) {
	p, q := product("P"), product("Q")
	b := basketOf(line(p, 1, "10.00"), line(q, 1, "15.00"))
	r := rangeOf("R", "P", "Q")
	o := exclusive("o1", CountCondition{Rng: r, Value: 2}, MultibuyBenefit{Rng: r})

	apps, err := NewApplicator().Apply(b, []*ConditionalOffer{o})
	require.NoError(t, err)
	assert.Equal(t, "10.00", apps.TotalBasketDiscount().StringFixed(2))
}

func TestApplicatorTrustsItsInput(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := product("P")
	b := basketOf(line(p, 1, "10.00"))
	r := rangeOf("R", "P")
	expired := exclusive("old", CountCondition{Rng: r, Value: 1}, AbsoluteBenefit{Rng: r, Value: dec("1")})
	expired.EndAt = now.Add(-time.Hour)

	assert.Empty(t, Eligible([]*ConditionalOffer{expired}, now))

	apps, err := NewApplicator().Apply(b, []*ConditionalOffer{expired})
	require.NoError(t, err)
	_, applied := apps.Get("old")
	assert.True(t, applied, "dates are the caller's concern")
}

func TestApplicatorFixedPriceClampsToZero(t *testing.T) {
	p := product("P")
	b := basketOf(line(p, 1, "5.00"))
	o := exclusive("o1", CountCondition{Rng: rangeOf("R", "P"), Value: 1}, FixedPriceBenefit{Value: dec("8.00")})

	apps, err := NewApplicator().Apply(b, []*ConditionalOffer{o})
	require.NoError(t, err)
	app, ok := apps.Get("o1")
	require.True(t, ok, "a zero discount is still an application")
	assert.True(t, app.Discount.IsZero())
	assert.Empty(t, apps.OfferDiscounts())
}

func TestApplicatorHigherPriorityWins(t *testing.T) {
	p := product("P")
	b := basketOf(line(p, 3, "10.00"))
	r := rangeOf("R", "P")
	low := exclusive("low", CountCondition{Rng: r, Value: 2}, AbsoluteBenefit{Rng: r, Value: dec("5"), MaxAffectedItems: 2})
	low.Priority = 1
	high := exclusive("high", CountCondition{Rng: r, Value: 2}, PercentageBenefit{Rng: r, Value: dec("10"), MaxAffectedItems: 2})
	high.Priority = 10

	apps, err := NewApplicator().Apply(b, []*ConditionalOffer{low, high})
	require.NoError(t, err)

	require.Equal(t, 1, apps.Len())
	app, ok := apps.Get("high")
	require.True(t, ok)
	assert.Equal(t, "2.00", app.Discount.StringFixed(2))
	_, ok = apps.Get("low")
	assert.False(t, ok)
}

func TestSortByPriorityIsStable(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &ConditionalOffer{ID: "a", Priority: 1, CreatedAt: t0.Add(time.Hour)}
	b := &ConditionalOffer{ID: "b", Priority: 1, CreatedAt: t0}
	c := &ConditionalOffer{ID: "c", Priority: 5, CreatedAt: t0.Add(2 * time.Hour)}
	d := &ConditionalOffer{ID: "d", Priority: 1, CreatedAt: t0, Sequence: 2}
	e := &ConditionalOffer{ID: "e", Priority: 1, CreatedAt: t0, Sequence: 1}

	var ids []string
	for _, o := range SortByPriority([]*ConditionalOffer{a, b, c, d, e}) {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"c", "b", "e", "d", "a"}, ids)
}

func TestApplicatorRepeatsUpToBasketCap(t *testing.T) {
	p := product("P")
	b := basketOf(line(p, 6, "10.00"))
	r := rangeOf("R", "P")
	o := exclusive("o1", CountCondition{Rng: r, Value: 2}, AbsoluteBenefit{Rng: r, Value: dec("1"), MaxAffectedItems: 2})

	apps, err := NewApplicator().Apply(b, []*ConditionalOffer{o})
	require.NoError(t, err)
	app, _ := apps.Get("o1")
	assert.Equal(t, 3, app.Frequency)
	assert.Equal(t, "3.00", app.Discount.StringFixed(2))

	o.MaxBasketApplications = 2
	ledger := NewLedger()
	apps, err = NewApplicator().Evaluate(Evaluation{Basket: b, Ledger: ledger, Offers: []*ConditionalOffer{o}})
	require.NoError(t, err)
	app, _ = apps.Get("o1")
	assert.Equal(t, 2, app.Frequency)
	assert.Equal(t, 4, ledger.Consumed(0))
}

func TestApplicatorUserCap(t *testing.T) {
	p := product("P")
	b := basketOf(line(p, 1, "10.00"))
	r := rangeOf("R", "P")
	o := exclusive("o1", CountCondition{Rng: r, Value: 1}, AbsoluteBenefit{Rng: r, Value: dec("1")})
	o.MaxUserApplications = 1

	apps, err := NewApplicator().Evaluate(Evaluation{
		Basket: b,
		Offers: []*ConditionalOffer{o},
		UserID: "u1",
		Usage:  map[string]Usage{"o1": {UserApplications: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, apps.Len())
}

func TestApplicatorCombinableOffersStack(t *testing.T) {
	p := product("P")
	b := basketOf(line(p, 2, "10.00"))
	r := rangeOf("R", "P")
	first := combinable("first", CountCondition{Rng: r, Value: 1}, PercentageBenefit{Rng: r, Value: dec("10"), MaxAffectedItems: 1})
	first.Priority = 2
	second := combinable("second", CountCondition{Rng: r, Value: 1}, PercentageBenefit{Rng: r, Value: dec("20"), MaxAffectedItems: 1})
	second.Priority = 1

	ledger := NewLedger()
	apps, err := NewApplicator().Evaluate(Evaluation{Basket: b, Ledger: ledger, Offers: []*ConditionalOffer{first, second}})
	require.NoError(t, err)

	a, _ := apps.Get("first")
	s, _ := apps.Get("second")
	assert.Equal(t, "2.00", a.Discount.StringFixed(2))
	assert.Equal(t, "4.00", s.Discount.StringFixed(2))
	assert.Equal(t, 2, ledger.Consumed(0))
}

func TestApplicatorExclusiveOfferBlocksStacking(t *testing.T) {
	p := product("P")
	b := basketOf(line(p, 2, "10.00"))
	r := rangeOf("R", "P")
	first := combinable("first", CountCondition{Rng: r, Value: 1}, PercentageBenefit{Rng: r, Value: dec("10"), MaxAffectedItems: 1})
	first.Priority = 2
	second := exclusive("second", CountCondition{Rng: r, Value: 1}, PercentageBenefit{Rng: r, Value: dec("20"), MaxAffectedItems: 1})

	apps, err := NewApplicator().Apply(b, []*ConditionalOffer{first, second})
	require.NoError(t, err)
	_, ok := apps.Get("second")
	assert.False(t, ok)
}

func TestApplicatorShippingAndPostOrder(t *testing.T) {
	b := basketOf(line(product("P"), 1, "10.00"))
	ship := exclusive("ship", NoneCondition{}, ShippingAbsoluteBenefit{Value: dec("5")})
	points := exclusive("points", NoneCondition{}, PostOrderBenefit{Description: "Award 100 points"})

	apps, err := NewApplicator().Apply(b, []*ConditionalOffer{ship, points})
	require.NoError(t, err)

	assert.Len(t, apps.ShippingDiscounts(), 1)
	assert.Equal(t, "4.99", apps.ShippingDiscount(dec("4.99")).StringFixed(2))
	assert.Equal(t, "5.00", apps.ShippingDiscount(dec("10")).StringFixed(2))

	actions := apps.PostOrderActions()
	require.Len(t, actions, 1)
	assert.Equal(t, "Award 100 points", actions[0].Result.Description)
	assert.Equal(t, 1, actions[0].Frequency)
	assert.True(t, apps.TotalBasketDiscount().IsZero())
}

func TestApplicatorRecordsDiscounts(t *testing.T) {
	p := product("P")
	b := basketOf(line(p, 5, "10.00"))
	r := rangeOf("R", "P")
	o := exclusive("o1", CountCondition{Rng: r, Value: 3}, PercentageBenefit{Rng: r, Value: dec("10"), MaxAffectedItems: 3})

	totals := NewMemoryTotals()
	app := NewApplicator(WithRecorder(totals))
	_, err := app.Apply(b, []*ConditionalOffer{o})
	require.NoError(t, err)
	_, err = app.Apply(b, []*ConditionalOffer{o})
	require.NoError(t, err)

	assert.Equal(t, "6.00", totals.Total("o1").StringFixed(2), "the lifetime total accumulates")
}

func TestApplicatorInclTax(t *testing.T) {
	p := product("P")
	l := line(p, 1, "10.00")
	l.UnitPriceInclTax = Price("12.00")
	b := basketOf(l)
	r := rangeOf("R", "P")
	o := exclusive("o1", CountCondition{Rng: r, Value: 1}, PercentageBenefit{Rng: r, Value: dec("10")})

	apps, err := NewApplicator(WithInclTax(true)).Apply(b, []*ConditionalOffer{o})
	require.NoError(t, err)
	assert.Equal(t, "1.20", apps.TotalBasketDiscount().StringFixed(2))
}

func TestApplicatorResetsLedger(t *testing.T) {
	p := product("P")
	b := basketOf(line(p, 2, "10.00"))
	r := rangeOf("R", "P")
	o := exclusive("o1", CountCondition{Rng: r, Value: 2}, AbsoluteBenefit{Rng: r, Value: dec("1")})

	ledger := NewLedger()
	ledger.Reset(b)
	ledger.Consume(0, 2, nil)

	apps, err := NewApplicator().Evaluate(Evaluation{Basket: b, Ledger: ledger, Offers: []*ConditionalOffer{o}})
	require.NoError(t, err)
	assert.Equal(t, 1, apps.Len())
}

func TestApplicatorLogsSkippedOffers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	b := basketOf(line(product("P"), 1, "10.00"))
	o := exclusive("needs-two", CountCondition{Rng: rangeOf("R", "P"), Value: 2}, MultibuyBenefit{Rng: rangeOf("R", "P")})

	_, err := NewApplicator(WithLogger(logger)).Apply(b, []*ConditionalOffer{o})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "offer=needs-two")
	assert.Contains(t, buf.String(), "condition not satisfied")
}

func TestApplicatorUnconditionalPercentageAppliesOnce(t *testing.T) {
	p := product("P")
	b := basketOf(line(p, 2, "10.00"))
	all := &Range{ID: "all", Name: "Everything", IncludesAllProducts: true}
	o := exclusive("site10", NoneCondition{}, PercentageBenefit{Rng: all, Value: dec("10")})

	apps, err := NewApplicator().Apply(b, []*ConditionalOffer{o})
	require.NoError(t, err)

	app, ok := apps.Get("site10")
	require.True(t, ok)
	assert.Equal(t, 1, app.Frequency, "an exhausted pool must not count as a second application")
	assert.Len(t, app.Results, 1)
	assert.Equal(t, "2.00", app.Discount.StringFixed(2))

	records := apps.Records()
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Frequency)
}
