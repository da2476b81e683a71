package vmm

import (
	"context"

	"uservm/internal/pfn"
	"uservm/internal/pte"
)

// runWriter is the writer worker loop, spec.md §4.5: wait for
// start_write or shutdown, run one write pass, repeat.
func (m *Manager_t) runWriter(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.startWrite.WaitChan():
			m.doWrite()
		}
	}
}

type writerBatchEntry struct {
	frameIdx int
	slot     pte.DiskSlot
}

// doWrite implements one writer pass: drain up to batch frames from the
// head of Modified, each given a freshly allocated pagefile slot, copy
// their content to the pagefile through the writer's transfer window,
// and move them to Standby.
//
// spec.md §4.5 holds the PT-lock continuously from step 1 through step
// 6 (release Standby-list lock, then PT-lock): a frame that has left
// Modified (RemoveHead below) but is not yet on Standby is, for that
// window, on no list at all even though its PTE is still Transition and
// its PFN state is still Modified. Releasing PT-lock during that window
// would let a concurrent PageFault take the rescue path, see state ==
// Modified, and call Remove on a node no longer linked into Modified —
// corrupting the list and double-homing the frame once this pass
// reaches the Standby append. The PT-lock therefore stays held across
// the copy-out and the Standby append; only the Modified-list lock is
// released early, once the batch has been drained from it.
func (m *Manager_t) doWrite() {
	m.Stats.WriteWakeups.Inc()

	m.lockPT()
	m.frames.Modified.Lock()
	var batch []writerBatchEntry
	for len(batch) < m.batch {
		if m.frames.Modified.Empty() {
			break
		}
		slot := m.pagefileAlloc.AllocateSlot()
		if slot == 0 {
			m.Stats.DiskFull.Inc()
			break
		}
		idx, _ := m.frames.RemoveHead(&m.frames.Modified)
		pf := &m.frames.Frames[idx]
		pf.Slot = slot
		batch = append(batch, writerBatchEntry{frameIdx: int(idx), slot: slot})
	}
	m.frames.Modified.Unlock()

	if len(batch) == 0 {
		m.unlockPT()
		return
	}

	for _, e := range batch {
		w := m.host.Window(writerWorkerID)
		hf := m.hostFrame[e.frameIdx]
		m.host.MapTransfer(w, hf)
		m.pagefileBuf.WriteSlot(e.slot, w.Bytes())
		m.host.UnmapTransfer(w)
	}

	m.frames.Standby.Lock()
	for _, e := range batch {
		pf := &m.frames.Frames[e.frameIdx]
		pf.State = pfn.StandbyState
		m.frames.AddTail(&m.frames.Standby, int32(e.frameIdx))
	}
	m.frames.Standby.Unlock()
	m.unlockPT()

	m.Stats.Written.Add(int64(len(batch)))

	// Pulse redo_fault: wake every thread currently blocked on it, then
	// reset so a future wait actually blocks until the next real pulse.
	// A true manual-reset event left permanently Set after the first
	// write would make every later REDO wait return instantly, spinning
	// the faulting thread instead of sleeping it — see DESIGN.md. The
	// pulse itself cannot lose a wakeup: waiters capture the event's
	// sequence number before deciding to wait (event.Manual.Seq /
	// WaitSince), so a pulse that lands between that capture and the
	// wait call still counts.
	m.redoFault.Set()
	m.redoFault.Reset()
}
