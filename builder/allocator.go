package builder

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Allocator hands out placeholder identifiers for questions that have not
// been persisted yet, so logic rules can reference them before the save
// round-trip assigns real ids. Tokens are unique within one process;
// they are discarded on save, so global uniqueness is not needed.
type Allocator struct {
	next atomic.Int64
}

func NewAllocator() *Allocator {
	a := &Allocator{}
	a.next.Store(time.Now().UnixMilli())
	return a
}

// Next returns a fresh TEMP_ token.
func (a *Allocator) Next() string {
	return fmt.Sprintf("TEMP_%d", a.next.Add(1))
}
