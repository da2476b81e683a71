// Package vmm implements the four-way page state machine described in
// spec.md: the fault handler, trimmer, and writer that move pages
// between the Free, Active, Modified, and Standby states, plus the
// Manager_t value that owns all of the shared mutable state spec.md §9
// says to group into "a single manager value owned by the bootstrap
// routine" rather than a true global singleton.
package vmm

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"uservm/internal/event"
	"uservm/internal/host"
	"uservm/internal/pagefile"
	"uservm/internal/pfn"
	"uservm/internal/pte"
	"uservm/internal/stats"
)

// DefaultBatchSize matches original_source/vm.h's BATCH_SIZE and
// spec.md §6's configuration constant.
const DefaultBatchSize = 10

// Config configures Manager_t at bring-up, spec.md §6's
// initialize(pool_frames, va_size, pagefile_size, num_threads).
type Config struct {
	// VirtualPages is N_v, the number of 4KB pages in the virtual
	// address space.
	VirtualPages int
	// PhysicalFrames is the number of frames requested from the host
	// at startup (N_p). The host may deliver fewer on partial success
	// (spec.md §6); the manager continues with whatever count arrives.
	PhysicalFrames int
	// PagefileSlots is D, the number of pagefile slots including the
	// permanently reserved slot 0.
	PagefileSlots int
	// BatchSize bounds how many pages the trimmer and writer move per
	// wakeup. Zero selects DefaultBatchSize.
	BatchSize int
	// Host supplies the privileged primitives this module treats
	// abstractly (spec.md §1, §6). Nil selects a fresh host.Simulated.
	Host host.Host
}

// Outcome is the result of a PageFault call, spec.md §4.3.
type Outcome int

const (
	// Success means the PTE is now Valid and the caller should retry
	// its original access.
	Success Outcome = iota
	// Redo means no frame could be obtained; the caller should wait on
	// the redo-fault signal and restart from the top.
	Redo
)

func (o Outcome) String() string {
	if o == Success {
		return "SUCCESS"
	}
	return "REDO"
}

// Pseudo worker ids reserved for the trimmer and writer's transfer
// windows, kept out of the range user callers are expected to use
// (0, 1, 2, ...) for their own goroutines.
const (
	trimmerWorkerID = -1
	writerWorkerID  = -2
)

// Manager_t is the single manager value spec.md §9 calls for: the PTE
// array, the PFN table and its three page lists, the pagefile slot
// allocator and backing arena, the host, and the event pair/quad that
// synchronize the fault handler with the trimmer and writer.
//
// The embedded Mutex is the PT-lock from spec.md §3/§4: "a fourth lock
// (PT-lock) covers PTE mutations". Lock_pmap/Unlock_pmap/Lockassert_pmap
// in the teacher's vm.Vm_t are mirrored here as lockPT/unlockPT/
// assertPTLocked.
type Manager_t struct {
	sync.Mutex
	ptLocked bool

	ptes   []pte.Entry
	vaBase host.VA

	frames    *pfn.Table
	hostFrame []pte.FrameNumber // table index -> host.Host frame number

	pagefileAlloc *pagefile.Allocator
	pagefileBuf   *pagefile.Buffer

	host host.Host

	redoFault  *event.Manual
	startTrim  *event.Auto
	startWrite *event.Auto

	scanCursor int
	batch      int

	Stats stats.Counters_t

	group  *errgroup.Group
	cancel context.CancelFunc
}

// New brings the manager up: reserves the virtual region, obtains the
// physical pool, and initializes every PFN Free — spec.md §2's "Bring-
// up of pools & dispatch" component.
func New(cfg Config) *Manager_t {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	h := cfg.Host
	if h == nil {
		h = host.NewSimulated()
	}

	vaBase := h.ReserveVARegion(cfg.VirtualPages * host.PageSize)
	hostFrames := h.GetPhysicalPages(cfg.PhysicalFrames)
	np := len(hostFrames)

	frames := pfn.NewTable(np)
	hostFrame := make([]pte.FrameNumber, np)
	copy(hostFrame, hostFrames)

	frames.Free.Lock()
	for i := int32(0); i < int32(np); i++ {
		frames.Frames[i].State = pfn.FreeState
		frames.AddTail(&frames.Free, i)
	}
	frames.Free.Unlock()

	d := cfg.PagefileSlots
	if d < 2 {
		d = 2
	}

	return &Manager_t{
		ptes:          make([]pte.Entry, cfg.VirtualPages),
		vaBase:        vaBase,
		frames:        frames,
		hostFrame:     hostFrame,
		pagefileAlloc: pagefile.NewAllocator(d),
		pagefileBuf:   pagefile.NewBuffer(d),
		host:          h,
		redoFault:     event.NewManual(),
		startTrim:     event.NewAuto(),
		startWrite:    event.NewAuto(),
		batch:         batch,
	}
}

// Start launches the trimmer and writer as supervised goroutines. It
// does not block; call Shutdown to stop them.
func (m *Manager_t) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	m.group = g
	g.Go(func() error { return m.runTrimmer(gctx) })
	g.Go(func() error { return m.runWriter(gctx) })
}

// Shutdown signals system_shutdown and waits for the trimmer and writer
// to exit cleanly.
func (m *Manager_t) Shutdown() error {
	if m.cancel != nil {
		m.cancel()
	}
	if m.group != nil {
		return m.group.Wait()
	}
	return nil
}

func (m *Manager_t) lockPT() {
	m.Lock()
	m.ptLocked = true
}

func (m *Manager_t) unlockPT() {
	m.ptLocked = false
	m.Unlock()
}

func (m *Manager_t) assertPTLocked() {
	if !m.ptLocked {
		panic("vmm: PT-lock must be held")
	}
}

func (m *Manager_t) pteIndex(va host.VA) int {
	return int((va - m.vaBase) / host.PageSize)
}

func (m *Manager_t) va(idx int) host.VA {
	return m.vaBase + host.VA(idx*host.PageSize)
}

// NumVirtualPages reports N_v.
func (m *Manager_t) NumVirtualPages() int { return len(m.ptes) }

// NumPhysicalFrames reports N_p, the frame count actually delivered by
// the host at bring-up.
func (m *Manager_t) NumPhysicalFrames() int { return len(m.frames.Frames) }

// VABase returns the base of the reserved virtual region, so callers
// can compute per-page addresses.
func (m *Manager_t) VABase() host.VA { return m.vaBase }

// PageAt returns the virtual address of virtual page i.
func (m *Manager_t) PageAt(i int) host.VA { return m.va(i) }
