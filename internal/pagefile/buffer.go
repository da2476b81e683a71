package pagefile

import "uservm/internal/pte"

// PageSize is the size, in bytes, of a single page / pagefile slot.
const PageSize = 4096

// Buffer is the byte arena standing in for the on-disk pagefile. Slot
// indices address PageSize-byte regions; slot 0 is never read or
// written (it is the allocator's permanent sentinel).
type Buffer struct {
	bytes []byte
}

// NewBuffer allocates a buffer large enough for d slots.
func NewBuffer(d int) *Buffer {
	return &Buffer{bytes: make([]byte, d*PageSize)}
}

func (b *Buffer) region(s pte.DiskSlot) []byte {
	off := int(s) * PageSize
	return b.bytes[off : off+PageSize]
}

// WriteSlot copies PageSize bytes from src into slot s.
func (b *Buffer) WriteSlot(s pte.DiskSlot, src []byte) {
	if s == 0 {
		panic("pagefile: write to slot 0")
	}
	copy(b.region(s), src)
}

// ReadSlot copies PageSize bytes from slot s into dst.
func (b *Buffer) ReadSlot(s pte.DiskSlot, dst []byte) {
	if s == 0 {
		panic("pagefile: read from slot 0")
	}
	copy(dst, b.region(s))
}
