package pagefile

import (
	"testing"

	"uservm/internal/pte"
)

func pteSlot(i int) pte.DiskSlot { return pte.DiskSlot(i) }

func TestSlotZeroReservedAtInit(t *testing.T) {
	a := NewAllocator(8)
	if !a.Occupied(0) {
		t.Fatalf("slot 0 not marked occupied at init")
	}
	if a.FreeCount() != 7 {
		t.Fatalf("FreeCount() = %d, want 7", a.FreeCount())
	}
}

func TestCursorStartsAtOne(t *testing.T) {
	a := NewAllocator(4)
	s := a.AllocateSlot()
	if s != 1 {
		t.Fatalf("first allocated slot = %d, want 1", s)
	}
}

func TestAllocateNeverReturnsZero(t *testing.T) {
	a := NewAllocator(4)
	for i := 0; i < 3; i++ {
		if s := a.AllocateSlot(); s == 0 {
			t.Fatalf("AllocateSlot returned 0 with free slots remaining")
		}
	}
	if s := a.AllocateSlot(); s != 0 {
		t.Fatalf("AllocateSlot() = %d on exhausted allocator, want 0", s)
	}
}

func TestFreeThenReallocate(t *testing.T) {
	a := NewAllocator(4)
	s1 := a.AllocateSlot()
	s2 := a.AllocateSlot()
	s3 := a.AllocateSlot()
	if a.AllocateSlot() != 0 {
		t.Fatalf("expected exhaustion")
	}
	a.FreeSlot(s2)
	s4 := a.AllocateSlot()
	if s4 != s2 {
		t.Fatalf("reallocated slot = %d, want freed slot %d", s4, s2)
	}
	_ = s1
	_ = s3
}

func TestDoubleFreePanics(t *testing.T) {
	a := NewAllocator(4)
	s := a.AllocateSlot()
	a.FreeSlot(s)
	defer func() {
		if recover() == nil {
			t.Fatalf("double free did not panic")
		}
	}()
	a.FreeSlot(s)
}

func TestFreeSlotZeroPanics(t *testing.T) {
	a := NewAllocator(4)
	defer func() {
		if recover() == nil {
			t.Fatalf("freeing slot 0 did not panic")
		}
	}()
	a.FreeSlot(0)
}

func TestBitmapMatchesFreeCount(t *testing.T) {
	a := NewAllocator(200)
	var allocated []int
	for i := 0; i < 50; i++ {
		s := a.AllocateSlot()
		if s == 0 {
			t.Fatalf("unexpected exhaustion at i=%d", i)
		}
		allocated = append(allocated, int(s))
	}
	if got, want := a.popcountOccupied(), 51; got != want { // +1 for slot 0
		t.Fatalf("popcount = %d, want %d", got, want)
	}
	for _, s := range allocated[:10] {
		a.FreeSlot(pteSlot(s))
	}
	if got, want := a.popcountOccupied(), 41; got != want {
		t.Fatalf("popcount after frees = %d, want %d", got, want)
	}
}

func TestBufferRoundTrip(t *testing.T) {
	buf := NewBuffer(4)
	a := NewAllocator(4)
	s := a.AllocateSlot()
	src := make([]byte, PageSize)
	src[0] = 0xAB
	src[PageSize-1] = 0xCD
	buf.WriteSlot(s, src)

	dst := make([]byte, PageSize)
	buf.ReadSlot(s, dst)
	if dst[0] != 0xAB || dst[PageSize-1] != 0xCD {
		t.Fatalf("round trip mismatch")
	}
}

func TestReadWriteSlotZeroPanics(t *testing.T) {
	buf := NewBuffer(4)
	t.Run("write", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatalf("WriteSlot(0, ...) did not panic")
			}
		}()
		buf.WriteSlot(0, make([]byte, PageSize))
	})
	t.Run("read", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatalf("ReadSlot(0, ...) did not panic")
			}
		}()
		buf.ReadSlot(0, make([]byte, PageSize))
	})
}
