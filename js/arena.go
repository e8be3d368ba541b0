package js

import (
	"errors"
	"fmt"
	"sync"
)

const (
	// DefaultArenaSize the default arena size
	DefaultArenaSize = 16 * 1024
	// MinArenaSize the smallest arena a context can be created over
	MinArenaSize = 10 * 1024
	// MaxArenaSize the largest arena a runner will allocate
	MaxArenaSize = 64 * 1024
)

var (
	// ErrArenaReleased the arena was used after Free
	ErrArenaReleased = errors.New("arena already released")
	// ErrOutOfMemory the arena has no room left
	ErrOutOfMemory = errors.New("out of memory")
	// ErrArenaSize the requested arena size is out of range
	ErrArenaSize = fmt.Errorf("arena size must be between %d and %d bytes", MinArenaSize, MaxArenaSize)
)

// Allocator hands out the memory block backing an Arena.
type Allocator interface {
	// Allocate reserves size bytes.
	Allocate(size int) ([]byte, error)
	// Release returns a block previously obtained from Allocate.
	Release(buf []byte)
}

// HeapAllocator allocates arenas on the Go heap.
// A positive Limit caps the total bytes outstanding at any time,
// which is how a constrained device is simulated.
type HeapAllocator struct {
	Limit int

	mu    sync.Mutex
	inUse int
}

// Allocate reserves size bytes.
func (h *HeapAllocator) Allocate(size int) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Limit > 0 && h.inUse+size > h.Limit {
		return nil, fmt.Errorf("%w: requested %d bytes, %d of %d in use",
			ErrOutOfMemory, size, h.inUse, h.Limit)
	}
	h.inUse += size
	return make([]byte, size), nil
}

// Release returns the block to the allocator.
func (h *HeapAllocator) Release(buf []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.inUse -= cap(buf)
	if h.inUse < 0 {
		h.inUse = 0
	}
}

// InUse returns the bytes currently allocated.
func (h *HeapAllocator) InUse() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inUse
}

var defaultAllocator Allocator = new(HeapAllocator)

// Arena a fixed-size memory block used as the working memory of one Context.
// Memory is handed out with a bump pointer and reclaimed all at once by Reset.
type Arena struct {
	allocator Allocator
	buf       []byte
	off       int
	freed     bool
}

// NewArena reserves an arena of the given size from the allocator.
// A nil allocator uses the Go heap.
func NewArena(allocator Allocator, size int) (*Arena, error) {
	if size < MinArenaSize || size > MaxArenaSize {
		return nil, fmt.Errorf("%w: got %d", ErrArenaSize, size)
	}
	if allocator == nil {
		allocator = defaultAllocator
	}
	buf, err := allocator.Allocate(size)
	if err != nil {
		return nil, err
	}
	if len(buf) < size {
		allocator.Release(buf)
		return nil, fmt.Errorf("%w: allocator returned %d of %d bytes", ErrOutOfMemory, len(buf), size)
	}
	return &Arena{allocator: allocator, buf: buf[:size]}, nil
}

// Size returns the arena capacity in bytes.
func (a *Arena) Size() int { return len(a.buf) }

// Used returns the bytes handed out since the last Reset.
func (a *Arena) Used() int { return a.off }

// Alloc hands out n bytes from the arena.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if a.freed {
		return nil, ErrArenaReleased
	}
	if n < 0 || a.off+n > len(a.buf) {
		return nil, ErrOutOfMemory
	}
	b := a.buf[a.off : a.off+n : a.off+n]
	a.off += n
	return b, nil
}

// Reset reclaims everything handed out by Alloc.
func (a *Arena) Reset() {
	if a.freed {
		return
	}
	clear(a.buf[:a.off])
	a.off = 0
}

// Freed reports whether the arena has been released.
func (a *Arena) Freed() bool { return a.freed }

// Free releases the block back to its allocator. It must be called
// only after every Context created over the arena has been closed.
func (a *Arena) Free() error {
	if a.freed {
		return ErrArenaReleased
	}
	a.freed = true
	a.allocator.Release(a.buf)
	a.buf = nil
	a.off = 0
	return nil
}
