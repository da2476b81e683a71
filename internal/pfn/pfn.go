// Package pfn implements the physical frame descriptor table and the
// intrusive doubly-linked page lists (Free, Modified, Standby) described
// in spec.md §3 and §4.1. Active frames are not enumerated through a
// list — they are reachable only through the PTE array, per spec.md.
//
// Back-references are indices into the caller-owned PTE array, not
// pointers: the teacher's Physmem_t models its own free list the same
// way, linking frames by index (nexti uint32) rather than by pointer,
// to avoid aliasing between the frame table and whatever array the
// index refers to.
package pfn

import (
	"sync"

	"uservm/internal/pte"
)

// None is the sentinel used for "no next/prev/PTE index".
const None int32 = -1

// State is the state tag of a physical frame descriptor.
type State int

const (
	// FreeState frames sit on the Free list, unowned by any PTE.
	FreeState State = iota
	// ActiveState frames are mapped; their owning PTE is Valid and the
	// frame is not on any list.
	ActiveState
	// ModifiedState frames hold content newer than any pagefile copy
	// and sit on the Modified list.
	ModifiedState
	// StandbyState frames have been written to their pagefile slot and
	// sit on the Standby list.
	StandbyState
)

func (s State) String() string {
	switch s {
	case FreeState:
		return "free"
	case ActiveState:
		return "active"
	case ModifiedState:
		return "modified"
	case StandbyState:
		return "standby"
	default:
		return "invalid"
	}
}

// Entry is a single physical frame descriptor, addressed by frame
// number (index into Table.Frames).
type Entry struct {
	next, prev int32

	// State is the frame's current list membership / ownership state.
	// Callers of the list primitives below must set it under the same
	// list lock they use to add/remove the frame from a list — add and
	// remove themselves only touch the link fields.
	State State

	// PTEIndex is the back-reference to the PTE currently (or most
	// recently) owning this frame. None when unowned (e.g. on Free).
	PTEIndex int

	// Slot is the pagefile slot this frame's content has been, or is
	// being, written to. Zero means none.
	Slot pte.DiskSlot
}

// List is a sentinel-headed intrusive doubly-linked list over a
// Table's frames, plus its own mutual-exclusion lock. An empty list has
// head and tail set to None, as NewTable initializes them; the zero
// value is not an empty list.
type List struct {
	sync.Mutex
	head, tail int32
	length     int
}

// Table owns the frame descriptor array shared by all three lists.
type Table struct {
	Frames []Entry

	Free     List
	Modified List
	Standby  List
}

// NewTable allocates a frame table of the given size with every frame
// initialized Free but not yet linked into any list — callers populate
// the Free list themselves during bring-up (spec.md §4's "Bring-up of
// pools & dispatch" component owns that sequencing).
func NewTable(n int) *Table {
	t := &Table{Frames: make([]Entry, n)}
	for i := range t.Frames {
		t.Frames[i].next = None
		t.Frames[i].prev = None
		t.Frames[i].PTEIndex = int(None)
	}
	t.Free.head, t.Free.tail = None, None
	t.Modified.head, t.Modified.tail = None, None
	t.Standby.head, t.Standby.tail = None, None
	return t
}

// Len reports the list's current length. The caller must hold the
// list's lock.
func (l *List) Len() int { return l.length }

// Empty reports whether the list has no members. The caller must hold
// the list's lock.
func (l *List) Empty() bool { return l.length == 0 }

// AddTail appends frame idx to the tail of l. It mutates only link
// fields; the caller sets Frames[idx].State under the same lock before
// or after calling AddTail, per spec.md §4.1.
func (t *Table) AddTail(l *List, idx int32) {
	f := &t.Frames[idx]
	f.next = None
	f.prev = l.tail
	if l.tail != None {
		t.Frames[l.tail].next = idx
	} else {
		l.head = idx
	}
	l.tail = idx
	l.length++
}

// RemoveHead unlinks and returns the frame at the head of l, or (None,
// false) if l is empty.
func (t *Table) RemoveHead(l *List) (int32, bool) {
	if l.head == None {
		return None, false
	}
	idx := l.head
	t.remove(l, idx)
	return idx, true
}

// Remove unlinks frame idx from l given its current link state. The
// caller must know idx is currently a member of l.
func (t *Table) Remove(l *List, idx int32) {
	t.remove(l, idx)
}

func (t *Table) remove(l *List, idx int32) {
	f := &t.Frames[idx]
	if f.prev != None {
		t.Frames[f.prev].next = f.next
	} else {
		l.head = f.next
	}
	if f.next != None {
		t.Frames[f.next].prev = f.prev
	} else {
		l.tail = f.prev
	}
	f.next, f.prev = None, None
	l.length--
}
