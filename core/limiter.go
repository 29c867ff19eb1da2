package core

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrBudgetExhausted is returned once a CallBudget has no calls left.
var ErrBudgetExhausted = errors.New("call budget exhausted")

// CallBudget bounds the model calls a single turn may issue. A zero limit
// means unbounded.
type CallBudget struct {
	limit int64
	used  atomic.Int64
}

// NewCallBudget returns a budget allowing limit calls.
func NewCallBudget(limit int) *CallBudget {
	return &CallBudget{limit: int64(limit)}
}

// Take consumes one call.
func (b *CallBudget) Take() error {
	n := b.used.Add(1)
	if b.limit > 0 && n > b.limit {
		return fmt.Errorf("%w: %d calls", ErrBudgetExhausted, b.limit)
	}
	return nil
}

// Used reports how many calls were taken, including rejected ones.
func (b *CallBudget) Used() int { return int(b.used.Load()) }

// Left reports the calls still available, or -1 when unbounded.
func (b *CallBudget) Left() int {
	if b.limit == 0 {
		return -1
	}
	return int(max(b.limit-b.used.Load(), 0))
}
