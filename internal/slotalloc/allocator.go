// Package slotalloc hands out virtual PCI (bus, slot) pairs in order,
// honoring a set of pre-reserved placements. It borrows the bitset-backed
// index style of the teacher's own QemuIndex (qemuindex.go) — there, a
// single *bit.Set tracks which integer indices of one device class have
// been issued; here, one *bit.Set per touched (bus, slot) tracks which of
// the 8 possible functions on that slot are taken, mirroring the original's
// PciSlotGenerator (`original_source/src/spec/util.rs`) reserving the full
// (bus, slot, func) triple rather than the whole slot.
package slotalloc

import (
	"github.com/yourbasic/bit"

	"github.com/project-machine/bhyverun/internal/pciaddr"
)

const maxSlot = 31
const maxBus = 255

type busSlot struct {
	bus  uint8
	slot uint8
}

// Allocator is the stateful slot generator described in spec §4.2. It is
// not safe for concurrent use; the supervisor is single-threaded.
type Allocator struct {
	cursorBus  uint8
	cursorSlot uint8
	reserved   map[busSlot]*bit.Set
}

// New builds an Allocator starting its cursor at (bus, slot) with the given
// placements pre-reserved at their exact function, not their whole slot
// (typically the explicit placements collected from the declaration before
// compilation begins).
func New(bus, slot uint8, reserve []pciaddr.Slot) *Allocator {
	a := &Allocator{
		cursorBus:  bus,
		cursorSlot: slot,
		reserved:   make(map[busSlot]*bit.Set),
	}
	for _, s := range reserve {
		a.markReserved(s.Bus, s.Slot, s.Func)
	}
	return a
}

func (a *Allocator) funcSet(bus, slot uint8) *bit.Set {
	k := busSlot{bus, slot}
	s, ok := a.reserved[k]
	if !ok {
		s = bit.New()
		a.reserved[k] = s
	}
	return s
}

// isReserved reports whether (bus, slot, 0) has been taken — the only
// function the cursor-driven allocation path ever hands out. An explicit
// reservation at a nonzero function leaves func 0 on that slot available.
func (a *Allocator) isReserved(bus, slot uint8) bool {
	s, ok := a.reserved[busSlot{bus, slot}]
	if !ok {
		return false
	}
	return s.Contains(0)
}

func (a *Allocator) markReserved(bus, slot, fn uint8) {
	s := a.funcSet(bus, slot)
	a.reserved[busSlot{bus, slot}] = s.Add(int(fn))
}

// NextSlot advances the cursor, skipping reserved slots, and returns the
// next free (bus, slot, func=0) triple. It returns false once the cursor
// has exhausted bus 255 slot 31.
func (a *Allocator) NextSlot() (pciaddr.Slot, bool) {
	for {
		if a.cursorBus == maxBus && a.cursorSlot == maxSlot {
			return pciaddr.Slot{}, false
		}

		if a.cursorSlot == maxSlot {
			a.cursorBus++
			a.cursorSlot = 0
			continue
		}

		candidate := pciaddr.Slot{Bus: a.cursorBus, Slot: a.cursorSlot, Func: 0}
		a.cursorSlot++

		if a.isReserved(candidate.Bus, candidate.Slot) {
			continue
		}

		a.markReserved(candidate.Bus, candidate.Slot, 0)
		return candidate, true
	}
}

// TryTakeSpecificBus returns the lowest unreserved slot on bus b. If the
// allocator's cursor has already moved past b, no slot can be issued there
// and it returns false. If the cursor is sitting exactly on b, this is
// equivalent to NextSlot.
func (a *Allocator) TryTakeSpecificBus(b uint8) (pciaddr.Slot, bool) {
	if a.cursorBus > b {
		return pciaddr.Slot{}, false
	}
	if a.cursorBus == b {
		return a.NextSlot()
	}

	for slot := uint8(0); ; slot++ {
		if !a.isReserved(b, slot) {
			a.markReserved(b, slot, 0)
			return pciaddr.Slot{Bus: b, Slot: slot, Func: 0}, true
		}
		if slot == maxSlot {
			return pciaddr.Slot{}, false
		}
	}
}

// TryTakeSpecificBusSlot attempts to reserve the exact (b, s) pair. It
// fails if that pair is already reserved, or if the cursor has already
// moved past it. A request landing exactly on the cursor behaves like
// NextSlot.
func (a *Allocator) TryTakeSpecificBusSlot(b, s uint8) (pciaddr.Slot, bool) {
	if a.isReserved(b, s) || a.cursorBus > b || (a.cursorBus == b && a.cursorSlot > s) {
		return pciaddr.Slot{}, false
	}

	if a.cursorBus == b && a.cursorSlot == s {
		return a.NextSlot()
	}

	a.markReserved(b, s, 0)
	return pciaddr.Slot{Bus: b, Slot: s, Func: 0}, true
}
