// Package host models the external collaborators spec.md §1 and §6
// treat abstractly: the privileged primitive that allocates physical
// frames, the primitive that binds a virtual address to one of them,
// and the reservation of the virtual address range itself. A real
// implementation would shell out to the host OS (mmap/mprotect and
// friends); this module only needs a Host to make spec.md §8's
// testable properties ("reading *va yields the last value written")
// checkable inside a regular Go process, so the only implementation
// provided here, Simulated, backs every frame with a real byte slice
// and tracks translations in a table instead of real page tables.
package host

import "uservm/internal/pte"

// VA is an opaque virtual address as returned by ReserveVARegion.
type VA uintptr

// PageSize matches pte's frame granularity (spec.md §3: P = 4096).
const PageSize = 4096

// Host is the set of operations this module consumes from its
// environment, per spec.md §6.
type Host interface {
	// GetPhysicalPages performs the one-shot allocation of n physical
	// frames at bring-up. It may return fewer than n on partial
	// success; the core continues with whatever count was delivered.
	GetPhysicalPages(n int) []pte.FrameNumber

	// ReserveVARegion reserves a contiguous virtual region of the given
	// size and returns its base address.
	ReserveVARegion(bytes int) VA

	// Map installs a translation from va to frame.
	Map(va VA, frame pte.FrameNumber)
	// MapScatter installs translations for every (vas[i], frames[i]) pair.
	MapScatter(vas []VA, frames []pte.FrameNumber)
	// Unmap removes any translation at va.
	Unmap(va VA)
	// UnmapScatter removes translations at every va in vas.
	UnmapScatter(vas []VA)

	// Window returns (creating if necessary) the calling worker's
	// private transfer-VA scratch window, identified by workerID. Per
	// spec.md §4.3.2, a dedicated window per thread eliminates
	// contention over the scratch area entirely.
	Window(workerID int) *TransferWindow
	// MapTransfer temporarily maps frame's content into w for a scoped
	// byte-level copy, mirroring the transfer VA idiom: map, copy,
	// unmap, never leaking across operations.
	MapTransfer(w *TransferWindow, frame pte.FrameNumber)
	// UnmapTransfer ends the scoped mapping started by MapTransfer,
	// flushing any writes made to w.Bytes() back into the frame.
	UnmapTransfer(w *TransferWindow)

	// ReadByte reads through an installed mapping at va. ok is false
	// if va has no current translation.
	ReadByte(va VA) (b byte, ok bool)
	// WriteByte writes through an installed mapping at va. ok is false
	// if va has no current translation.
	WriteByte(va VA, b byte) (ok bool)
}

// TransferWindow is a per-worker scratch buffer exactly one page wide.
type TransferWindow struct {
	buf    [PageSize]byte
	mapped bool
	frame  pte.FrameNumber
}

// Bytes exposes the scratch buffer for reading or writing while the
// window is mapped to a frame.
func (w *TransferWindow) Bytes() []byte { return w.buf[:] }
