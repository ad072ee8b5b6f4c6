package offer

// Ledger tracks how many units of each basket line offers have claimed during
// one evaluation. Lines are addressed by index. A Ledger is scratch state owned
// by the caller and must not be shared between concurrent evaluations.
type Ledger struct {
	lines []lineUsage
}

type lineUsage struct {
	quantity  int
	consumed  int
	byOffer   map[string]int
	exclusive bool
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Reset sizes the ledger for b and clears all consumption.
func (l *Ledger) Reset(b Basket) {
	if cap(l.lines) >= len(b.Lines) {
		l.lines = l.lines[:len(b.Lines)]
	} else {
		l.lines = make([]lineUsage, len(b.Lines))
	}
	for i, line := range b.Lines {
		l.lines[i] = lineUsage{quantity: line.Quantity}
	}
}

func (l *Ledger) Len() int {
	return len(l.lines)
}

// Consumed is the number of units of line i claimed by any offer.
func (l *Ledger) Consumed(i int) int {
	if i < 0 || i >= len(l.lines) {
		return 0
	}
	return l.lines[i].consumed
}

// ConsumedBy is the number of units of line i claimed by the given offer.
func (l *Ledger) ConsumedBy(i int, offerID string) int {
	if i < 0 || i >= len(l.lines) {
		return 0
	}
	return l.lines[i].byOffer[offerID]
}

// Available returns how many units of line i o may still claim. An exclusive
// offer, or any offer on a line an exclusive offer already touched, sees only
// the units nobody has claimed. A combinable offer on an untouched line sees
// everything it has not claimed itself, so combinable offers stack.
func (l *Ledger) Available(i int, o *ConditionalOffer) int {
	if i < 0 || i >= len(l.lines) {
		return 0
	}
	u := l.lines[i]
	if o == nil || !o.Combinable || u.exclusive {
		return u.quantity - u.consumed
	}
	return u.quantity - u.byOffer[o.ID]
}

// Consume claims up to n units of line i for o and returns how many it got.
func (l *Ledger) Consume(i, n int, o *ConditionalOffer) int {
	if n <= 0 || i < 0 || i >= len(l.lines) {
		return 0
	}
	n = min(n, l.Available(i, o))
	if n <= 0 {
		return 0
	}
	u := &l.lines[i]
	u.consumed = min(u.quantity, u.consumed+n)
	if o != nil {
		if u.byOffer == nil {
			u.byOffer = make(map[string]int)
		}
		u.byOffer[o.ID] += n
		if !o.Combinable {
			u.exclusive = true
		}
	}
	return n
}

// Snapshot returns the per-line consumed counts.
func (l *Ledger) Snapshot() []int {
	out := make([]int, len(l.lines))
	for i, u := range l.lines {
		out[i] = u.consumed
	}
	return out
}
