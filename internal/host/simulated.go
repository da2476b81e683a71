package host

import (
	"sync"

	"uservm/internal/pte"
	"uservm/internal/util"
)

// Simulated is an in-process stand-in for the host primitives. Every
// physical frame is backed by a real [PageSize]byte array; a
// translation table plays the role of the CPU's page tables. It is
// safe for concurrent use by multiple goroutines, the same way the
// privileged primitives it replaces would be safe for concurrent use
// by multiple kernel threads.
type Simulated struct {
	mu     sync.Mutex
	frames [][PageSize]byte
	vaBase VA
	vaLen  int
	xlate  map[VA]pte.FrameNumber

	winMu   sync.Mutex
	windows map[int]*TransferWindow
}

// NewSimulated returns a Simulated host with no frames and no reserved
// virtual region yet; call GetPhysicalPages and ReserveVARegion during
// bring-up exactly as spec.md §6 describes.
func NewSimulated() *Simulated {
	return &Simulated{
		xlate:   make(map[VA]pte.FrameNumber),
		windows: make(map[int]*TransferWindow),
	}
}

// GetPhysicalPages allocates n fresh frames, numbered sequentially from
// the count already allocated. Frames start zeroed.
func (s *Simulated) GetPhysicalPages(n int) []pte.FrameNumber {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.frames)
	out := make([]pte.FrameNumber, 0, n)
	for i := 0; i < n; i++ {
		s.frames = append(s.frames, [PageSize]byte{})
		out = append(out, pte.FrameNumber(start+i))
	}
	return out
}

// ReserveVARegion reserves a contiguous region of the given byte size,
// rounded up to a whole number of pages, and returns its base address.
// Only one region is ever reserved per Simulated instance, matching
// this module's single-address-space scope (spec.md §1 Non-goals).
const vaBaseOrigin VA = 0x0000_1000_0000_0000

func (s *Simulated) ReserveVARegion(bytes int) VA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vaLen != 0 {
		panic("host: ReserveVARegion called twice on one Simulated instance")
	}
	s.vaBase = vaBaseOrigin
	s.vaLen = util.Roundup(bytes, PageSize)
	return s.vaBase
}

func (s *Simulated) checkVA(va VA) {
	if s.vaLen == 0 || va < s.vaBase || va >= s.vaBase+VA(s.vaLen) {
		panic("host: va out of reserved region")
	}
	if (va-s.vaBase)%PageSize != 0 {
		panic("host: va not page aligned")
	}
}

// Map installs a translation from va to frame.
func (s *Simulated) Map(va VA, frame pte.FrameNumber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkVA(va)
	if int(frame) >= len(s.frames) {
		panic("host: Map of frame never allocated")
	}
	s.xlate[va] = frame
}

// MapScatter installs translations for every (vas[i], frames[i]) pair.
func (s *Simulated) MapScatter(vas []VA, frames []pte.FrameNumber) {
	if len(vas) != len(frames) {
		panic("host: MapScatter length mismatch")
	}
	for i := range vas {
		s.Map(vas[i], frames[i])
	}
}

// Unmap removes any translation at va. Unmapping an unmapped va is a
// no-op, matching typical host unmap semantics.
func (s *Simulated) Unmap(va VA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.xlate, va)
}

// UnmapScatter removes translations at every va in vas.
func (s *Simulated) UnmapScatter(vas []VA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, va := range vas {
		delete(s.xlate, va)
	}
}

// Window returns the calling worker's private transfer window,
// creating it on first use.
func (s *Simulated) Window(workerID int) *TransferWindow {
	s.winMu.Lock()
	defer s.winMu.Unlock()
	w, ok := s.windows[workerID]
	if !ok {
		w = &TransferWindow{}
		s.windows[workerID] = w
	}
	return w
}

// MapTransfer copies frame's current content into w, as if w had just
// been mapped to that frame.
func (s *Simulated) MapTransfer(w *TransferWindow, frame pte.FrameNumber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.mapped {
		panic("host: MapTransfer called on an already-mapped window")
	}
	if int(frame) >= len(s.frames) {
		panic("host: MapTransfer of frame never allocated")
	}
	copy(w.buf[:], s.frames[frame][:])
	w.mapped = true
	w.frame = frame
}

// UnmapTransfer flushes any writes made to w.Bytes() back into the
// frame it was mapped to and ends the scoped mapping.
func (s *Simulated) UnmapTransfer(w *TransferWindow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !w.mapped {
		panic("host: UnmapTransfer called on an unmapped window")
	}
	copy(s.frames[w.frame][:], w.buf[:])
	w.mapped = false
}

// ReadByte reads through an installed mapping at va.
func (s *Simulated) ReadByte(va VA) (byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame, ok := s.xlate[va]
	if !ok {
		return 0, false
	}
	off := int(va-s.vaBase) % PageSize
	return s.frames[frame][off], true
}

// WriteByte writes through an installed mapping at va.
func (s *Simulated) WriteByte(va VA, b byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame, ok := s.xlate[va]
	if !ok {
		return false
	}
	off := int(va-s.vaBase) % PageSize
	s.frames[frame][off] = b
	return true
}
