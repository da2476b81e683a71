// Package pagefile implements the pagefile slot allocator (spec.md §4.2)
// and the byte arena standing in for the pagefile's on-disk storage.
//
// The occupancy bitmap is packed into []uint64 words with a free-count
// fast path, the same shape as gopher-os's bitmap frame allocator
// (kernel/mem/pmm/allocator/bitmap_allocator.go) — the teacher itself
// has no slot/bitmap allocator of its own to imitate for this concern.
package pagefile

import (
	"math/bits"
	"sync"

	"uservm/internal/pte"
)

const wordBits = 64

// Allocator tracks pagefile slot occupancy with a rotating cursor, as
// specified in spec.md §4.2. Slot 0 is permanently reserved so it can
// serve as the "no slot" sentinel (invariant 7: next_cursor ∈ [1, D)).
type Allocator struct {
	mu       sync.Mutex
	occupied []uint64 // bit i set means slot i is occupied
	slots    int      // D, total addressable slots (including slot 0)
	cursor   int       // next_cursor, always in [1, slots)
	free     int       // count of free slots, excludes slot 0
}

// NewAllocator returns an allocator over slots [0, d), with slot 0
// pre-occupied and the cursor initialized to 1.
func NewAllocator(d int) *Allocator {
	if d < 2 {
		panic("pagefile: need at least 2 slots (slot 0 is reserved)")
	}
	words := (d + wordBits - 1) / wordBits
	a := &Allocator{
		occupied: make([]uint64, words),
		slots:    d,
		cursor:   1,
		free:     d - 1,
	}
	a.setBit(0)
	return a
}

func (a *Allocator) setBit(i int)   { a.occupied[i/wordBits] |= 1 << uint(i%wordBits) }
func (a *Allocator) clearBit(i int) { a.occupied[i/wordBits] &^= 1 << uint(i%wordBits) }
func (a *Allocator) testBit(i int) bool {
	return a.occupied[i/wordBits]&(1<<uint(i%wordBits)) != 0
}

// AllocateSlot scans the bitmap starting at next_cursor, wrapping at D,
// terminating when a free slot is found or the scan returns to its
// start. On success it marks the slot occupied, advances next_cursor
// past it (wrapping to 1 at D), and returns the slot. On failure (all
// occupied) it returns slot 0.
func (a *Allocator) AllocateSlot() pte.DiskSlot {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.free == 0 {
		return 0
	}

	start := a.cursor
	i := start
	for {
		if !a.testBit(i) {
			a.setBit(i)
			a.free--
			found := i
			i++
			if i >= a.slots {
				i = 1
			}
			a.cursor = i
			return pte.DiskSlot(found)
		}
		i++
		if i >= a.slots {
			i = 1
		}
		if i == start {
			return 0
		}
	}
}

// FreeSlot releases slot s, making it available for future allocation.
// Freeing slot 0 is a programming error.
func (a *Allocator) FreeSlot(s pte.DiskSlot) {
	if s == 0 {
		panic("pagefile: attempted to free slot 0")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	i := int(s)
	if i < 0 || i >= a.slots {
		panic("pagefile: slot out of range")
	}
	if !a.testBit(i) {
		panic("pagefile: double free of slot")
	}
	a.clearBit(i)
	a.free++
}

// Occupied reports whether slot s is currently allocated. Intended for
// tests and invariant checks.
func (a *Allocator) Occupied(s pte.DiskSlot) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.testBit(int(s))
}

// FreeCount returns the number of slots (excluding slot 0) currently
// unallocated.
func (a *Allocator) FreeCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.free
}

// popcountOccupied is a debugging helper exercised by tests to cross
// check free-count bookkeeping against the bitmap itself.
func (a *Allocator) popcountOccupied() int {
	n := 0
	for _, w := range a.occupied {
		n += bits.OnesCount64(w)
	}
	return n
}
