package pipeline

import (
	"context"
	"errors"
	"sync"
)

// DefaultReorderWindow bounds how far ahead of the slowest outstanding block
// a completed block may run before its producer is blocked.
const DefaultReorderWindow = 64

// ErrBufferClosed is returned when operating on a closed reorder buffer.
var ErrBufferClosed = errors.New("reorder buffer is closed")

// ReorderBuffer restores schedule order over results completed out of order.
// Blocks are assigned contiguous sequence numbers at scheduling time; workers
// Put results as they finish and a single consumer Pops them back in sequence
// order. Put accepts only sequences within window of the next one to release,
// which backpressures fast workers onto the slowest outstanding block. The
// next-needed sequence is always within the window, so Put cannot deadlock.
type ReorderBuffer struct {
	mu      sync.Mutex
	window  uint64
	pending map[uint64]*BlockResult
	next    uint64

	// changed is closed and replaced whenever pending or next moves
	changed chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewReorderBuffer creates a buffer releasing results in sequence order
// starting at 0. A window <= 0 falls back to DefaultReorderWindow.
func NewReorderBuffer(window int) *ReorderBuffer {
	if window <= 0 {
		window = DefaultReorderWindow
	}
	return &ReorderBuffer{
		window:  uint64(window),
		pending: make(map[uint64]*BlockResult),
		changed: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Put stores the result for sequence seq, blocking while seq is more than
// window ahead of the next sequence to release.
func (b *ReorderBuffer) Put(ctx context.Context, seq uint64, res *BlockResult) error {
	for {
		b.mu.Lock()
		if seq < b.next+b.window {
			b.pending[seq] = res
			b.notifyLocked()
			b.mu.Unlock()
			return nil
		}
		ch := b.changed
		b.mu.Unlock()

		select {
		case <-ch:
		case <-b.done:
			return ErrBufferClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Pop returns the next result in sequence order, blocking until it arrives.
// Returns ErrBufferClosed once the buffer is closed and drained.
func (b *ReorderBuffer) Pop(ctx context.Context) (*BlockResult, error) {
	for {
		b.mu.Lock()
		if res, ok := b.pending[b.next]; ok {
			delete(b.pending, b.next)
			b.next++
			b.notifyLocked()
			b.mu.Unlock()
			return res, nil
		}
		ch := b.changed
		b.mu.Unlock()

		select {
		case <-ch:
		case <-b.done:
			// Results put before close are still released in order.
			b.mu.Lock()
			res, ok := b.pending[b.next]
			if ok {
				delete(b.pending, b.next)
				b.next++
				b.notifyLocked()
			}
			b.mu.Unlock()
			if ok {
				return res, nil
			}
			return nil, ErrBufferClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len reports how many results are currently buffered.
func (b *ReorderBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Close unblocks pending Put and Pop calls. Results already buffered remain
// readable via Pop until drained.
func (b *ReorderBuffer) Close() {
	b.once.Do(func() { close(b.done) })
}

// notifyLocked wakes every waiter. Caller holds mu.
func (b *ReorderBuffer) notifyLocked() {
	close(b.changed)
	b.changed = make(chan struct{})
}
