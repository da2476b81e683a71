package host

import "testing"

func TestMapThenReadWriteRoundTrip(t *testing.T) {
	h := NewSimulated()
	base := h.ReserveVARegion(4 * PageSize)
	frames := h.GetPhysicalPages(2)
	h.Map(base, frames[0])

	if ok := h.WriteByte(base, 0x42); !ok {
		t.Fatal("WriteByte reported no mapping")
	}
	b, ok := h.ReadByte(base)
	if !ok || b != 0x42 {
		t.Fatalf("ReadByte = (%x, %v), want (0x42, true)", b, ok)
	}
}

func TestReadWriteUnmappedFails(t *testing.T) {
	h := NewSimulated()
	base := h.ReserveVARegion(PageSize)
	if _, ok := h.ReadByte(base); ok {
		t.Fatal("ReadByte on unmapped va reported ok")
	}
	if ok := h.WriteByte(base, 1); ok {
		t.Fatal("WriteByte on unmapped va reported ok")
	}
}

func TestUnmapRemovesTranslation(t *testing.T) {
	h := NewSimulated()
	base := h.ReserveVARegion(PageSize)
	frames := h.GetPhysicalPages(1)
	h.Map(base, frames[0])
	h.Unmap(base)
	if _, ok := h.ReadByte(base); ok {
		t.Fatal("ReadByte succeeded after Unmap")
	}
}

func TestTransferWindowRoundTrip(t *testing.T) {
	h := NewSimulated()
	base := h.ReserveVARegion(PageSize)
	frames := h.GetPhysicalPages(1)

	w := h.Window(7)
	h.MapTransfer(w, frames[0])
	w.Bytes()[0] = 0x99
	h.UnmapTransfer(w)

	// map the same frame through a va to confirm the write landed.
	h.Map(base, frames[0])
	b, ok := h.ReadByte(base)
	if !ok || b != 0x99 {
		t.Fatalf("ReadByte after transfer = (%x, %v), want (0x99, true)", b, ok)
	}
}

func TestWindowIsPerWorker(t *testing.T) {
	h := NewSimulated()
	w1 := h.Window(1)
	w2 := h.Window(2)
	if w1 == w2 {
		t.Fatal("distinct worker ids shared a window")
	}
	again := h.Window(1)
	if again != w1 {
		t.Fatal("Window(1) returned a different window on second call")
	}
}

func TestMapTransferTwiceWithoutUnmapPanics(t *testing.T) {
	h := NewSimulated()
	h.ReserveVARegion(PageSize)
	frames := h.GetPhysicalPages(1)
	w := h.Window(1)
	h.MapTransfer(w, frames[0])
	defer func() {
		if recover() == nil {
			t.Fatal("double MapTransfer did not panic")
		}
	}()
	h.MapTransfer(w, frames[0])
}
