package vmm

import (
	"context"

	"uservm/internal/host"
	"uservm/internal/pfn"
	"uservm/internal/pte"
	"uservm/internal/util"
)

// runTrimmer is the trimmer worker loop, spec.md §4.4: wait for
// start_trim or shutdown, run one trim pass, repeat.
func (m *Manager_t) runTrimmer(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.startTrim.WaitChan():
			m.doTrim()
		}
	}
}

// doTrim implements one trimmer pass: scan the PTE array from the
// persistent cursor, gathering up to batch Valid PTEs, unmap them as a
// batch, and move their PFNs to Modified.
func (m *Manager_t) doTrim() {
	m.Stats.TrimWakeups.Inc()
	m.lockPT()

	n := len(m.ptes)
	gathered := make([]int, 0, util.Min(m.batch, n))
	for examined := 0; examined < n && len(gathered) < m.batch; examined++ {
		idx := m.scanCursor
		m.scanCursor = (m.scanCursor + 1) % n
		if m.ptes[idx].Format() == pte.Valid {
			gathered = append(gathered, idx)
		}
	}

	if len(gathered) == 0 {
		m.unlockPT()
		return
	}

	vas := make([]host.VA, len(gathered))
	for i, idx := range gathered {
		vas[i] = m.va(idx)
	}
	m.host.UnmapScatter(vas)

	m.frames.Modified.Lock()
	for _, idx := range gathered {
		frameIdx := int(m.ptes[idx].Frame())
		pf := &m.frames.Frames[frameIdx]
		if pf.State != pfn.ActiveState || pf.PTEIndex != idx {
			panic("vmm: trimmer found a Valid PTE pointing at a non-Active PFN")
		}
		m.ptes[idx] = pte.EncodeTransition(pte.FrameNumber(frameIdx))
		pf.State = pfn.ModifiedState
		m.Stats.Active.Dec()
		m.frames.AddTail(&m.frames.Modified, int32(frameIdx))
	}
	m.frames.Modified.Unlock()

	m.unlockPT()
	m.Stats.Trimmed.Add(int64(len(gathered)))
	m.startWrite.Signal()
}
