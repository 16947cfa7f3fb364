// Package progress rate-limits progress reports for a pass over a known
// number of elements.
package progress

// Ticks bounds how many reports a full pass produces, the final one
// included.
const Ticks = 79

// Ticker forwards progress to a callback at most Ticks times. A Ticker with
// a nil callback does nothing.
type Ticker struct {
	fn    func(done, total uint64)
	total uint64
	step  uint64
	next  uint64
}

// New returns a Ticker for a pass over total elements.
func New(fn func(done, total uint64), total uint64) *Ticker {
	step := max((total+Ticks-1)/Ticks, 1)
	return &Ticker{fn: fn, total: total, step: step, next: step}
}

// Advance records that done elements have been processed.
func (t *Ticker) Advance(done uint64) {
	if t.fn == nil || done < t.next || done >= t.total {
		return
	}
	t.fn(done, t.total)
	t.next = (done/t.step + 1) * t.step
}

// Finish reports completion.
func (t *Ticker) Finish() {
	if t.fn != nil {
		t.fn(t.total, t.total)
	}
}
