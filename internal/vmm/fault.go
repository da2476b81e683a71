package vmm

import (
	"uservm/internal/host"
	"uservm/internal/pfn"
	"uservm/internal/pte"
)

// PageFault implements spec.md §4.3. workerID identifies the caller's
// transfer window (§4.3.2); callers that never need to repurpose or
// read from disk may still pass any stable id, since a window is only
// touched on the Zero/Disk slow path.
//
// The PT-lock is held for the whole call except across the REDO branch,
// where it is released before signaling the trimmer: holding it across
// steps 4-6 keeps a concurrent trimmer pass from reclassifying the very
// page being serviced (the Open Question spec.md §9 raises about
// rescue/trim races).
func (m *Manager_t) PageFault(workerID int, va host.VA) Outcome {
	m.Stats.Faults.Inc()
	idx := m.pteIndex(va)

	m.lockPT()
	entry := m.ptes[idx]

	switch entry.Format() {
	case pte.Valid:
		m.unlockPT()
		m.Stats.Successes.Inc()
		return Success

	case pte.Transition:
		m.rescue(workerID, idx, entry, va)
		m.unlockPT()
		m.Stats.Rescues.Inc()
		m.Stats.Successes.Inc()
		return Success

	default: // Zero or Disk
		frameIdx, ok := m.obtainFrame(workerID)
		if !ok {
			m.unlockPT()
			m.startTrim.Signal()
			m.Stats.Redos.Inc()
			return Redo
		}
		if entry.Format() == pte.Disk {
			slot := entry.Slot()
			m.readFromPagefile(workerID, frameIdx, slot)
			m.pagefileAlloc.FreeSlot(slot)
			m.Stats.DiskReads.Inc()
		} else {
			m.zeroFrame(workerID, frameIdx)
		}
		m.activate(idx, frameIdx, va)
		m.unlockPT()
		m.Stats.Successes.Inc()
		return Success
	}
}

// rescue implements spec.md §4.3 step 3: reclaim a Transition-format
// PFN without ever touching the pagefile or the transfer VA, since its
// frame content is already current.
func (m *Manager_t) rescue(workerID int, idx int, entry pte.Entry, va host.VA) {
	m.assertPTLocked()
	frameIdx := int(entry.Frame())
	pf := &m.frames.Frames[frameIdx]

	list := &m.frames.Modified
	wasStandby := pf.State == pfn.StandbyState
	if wasStandby {
		list = &m.frames.Standby
	}
	list.Lock()
	m.frames.Remove(list, int32(frameIdx))
	list.Unlock()

	if wasStandby {
		m.pagefileAlloc.FreeSlot(pf.Slot)
		pf.Slot = 0
	}

	m.activate(idx, frameIdx, va)
}

// obtainFrame implements spec.md §4.3 step 4: take the head of Free, or
// repurpose a Standby frame if Free is empty.
func (m *Manager_t) obtainFrame(workerID int) (int, bool) {
	m.assertPTLocked()
	m.frames.Free.Lock()
	idx, ok := m.frames.RemoveHead(&m.frames.Free)
	m.frames.Free.Unlock()
	if ok {
		return int(idx), true
	}
	return m.repurpose(workerID)
}

// repurpose implements spec.md §4.3.1: harvest the head of Standby,
// rewrite the PTE that used to point at it to Disk format so that PTE's
// next fault re-reads the slot, and zero-fill the frame for its new
// owner.
func (m *Manager_t) repurpose(workerID int) (int, bool) {
	m.assertPTLocked()
	m.frames.Standby.Lock()
	idx, ok := m.frames.RemoveHead(&m.frames.Standby)
	m.frames.Standby.Unlock()
	if !ok {
		return 0, false
	}

	pf := &m.frames.Frames[idx]
	oldPTEIdx := pf.PTEIndex
	slot := pf.Slot
	m.ptes[oldPTEIdx] = pte.EncodeDisk(slot)

	m.zeroFrame(workerID, int(idx))

	pf.Slot = 0
	pf.PTEIndex = int(pfn.None)
	m.Stats.Repurposes.Inc()
	return int(idx), true
}

// activate implements spec.md §4.3 step 6: the four writes that bring a
// frame into the Active state, installing a fresh host mapping.
func (m *Manager_t) activate(idx int, frameIdx int, va host.VA) {
	m.assertPTLocked()
	hf := m.hostFrame[frameIdx]
	m.host.Map(va, hf)

	pf := &m.frames.Frames[frameIdx]
	pf.State = pfn.ActiveState
	pf.PTEIndex = idx

	m.ptes[idx] = pte.EncodeValid(pte.FrameNumber(frameIdx))
	m.Stats.Active.Inc()
}

// zeroFrame zero-fills a frame through the transfer VA idiom (§4.3.2).
func (m *Manager_t) zeroFrame(workerID int, frameIdx int) {
	w := m.host.Window(workerID)
	hf := m.hostFrame[frameIdx]
	m.host.MapTransfer(w, hf)
	b := w.Bytes()
	for i := range b {
		b[i] = 0
	}
	m.host.UnmapTransfer(w)
}

// readFromPagefile reads a disk slot into a frame through the transfer
// VA idiom (§4.3.2).
func (m *Manager_t) readFromPagefile(workerID int, frameIdx int, slot pte.DiskSlot) {
	w := m.host.Window(workerID)
	hf := m.hostFrame[frameIdx]
	m.host.MapTransfer(w, hf)
	m.pagefileBuf.ReadSlot(slot, w.Bytes())
	m.host.UnmapTransfer(w)
}

// Access reads a byte at va, servicing page faults and REDOs until it
// succeeds. This is the "user thread" loop spec.md §4.3 describes
// informally as the caller's responsibility: call PageFault, and on
// REDO wait for redo_fault before restarting from the top.
//
// The redo_fault sequence number is captured before PageFault runs, not
// after it returns REDO: the writer may pulse redo_fault in direct
// response to this very call's start_trim signal, entirely within the
// PageFault call, and a Wait entered only after that would block
// forever having missed it. Capturing Seq first and waiting with
// WaitSince makes that race harmless.
func (m *Manager_t) Access(workerID int, va host.VA) byte {
	for {
		if b, ok := m.host.ReadByte(va); ok {
			return b
		}
		seq := m.redoFault.Seq()
		if m.PageFault(workerID, va) == Redo {
			m.redoFault.WaitSince(seq)
		}
	}
}

// Store writes a byte at va, servicing page faults and REDOs until it
// succeeds.
func (m *Manager_t) Store(workerID int, va host.VA, b byte) {
	for {
		if m.host.WriteByte(va, b) {
			return
		}
		seq := m.redoFault.Seq()
		if m.PageFault(workerID, va) == Redo {
			m.redoFault.WaitSince(seq)
		}
	}
}
