package slotalloc

import (
	"testing"

	"github.com/project-machine/bhyverun/internal/pciaddr"
)

func TestHostbridgeThenLpcDefault(t *testing.T) {
	a := New(0, 0, nil)

	hostbridge, ok := a.TryTakeSpecificBus(0)
	if !ok || hostbridge != (pciaddr.Slot{Bus: 0, Slot: 0, Func: 0}) {
		t.Fatalf("hostbridge = %+v, ok=%v", hostbridge, ok)
	}

	lpc, ok := a.TryTakeSpecificBusSlot(0, 31)
	if !ok || lpc != (pciaddr.Slot{Bus: 0, Slot: 31, Func: 0}) {
		t.Fatalf("lpc = %+v, ok=%v", lpc, ok)
	}
}

func TestLpcFallbackWhenSlot31Reserved(t *testing.T) {
	// declaration reserved 0:31 explicitly
	a := New(0, 0, []pciaddr.Slot{{Bus: 0, Slot: 31, Func: 0}})

	hostbridge, ok := a.TryTakeSpecificBus(0)
	if !ok || hostbridge != (pciaddr.Slot{Bus: 0, Slot: 0, Func: 0}) {
		t.Fatalf("hostbridge = %+v, ok=%v", hostbridge, ok)
	}

	if _, ok := a.TryTakeSpecificBusSlot(0, 31); ok {
		t.Fatal("expected reserved 0:31 to be refused")
	}

	// the compiler then falls back to any free bus-0 slot
	lpc, ok := a.TryTakeSpecificBus(0)
	if !ok {
		t.Fatal("expected fallback slot for lpc")
	}
	if lpc != (pciaddr.Slot{Bus: 0, Slot: 1, Func: 0}) {
		t.Fatalf("lpc fallback = %+v, want 0:1:0", lpc)
	}
}

func TestNextSlotSkipsReserved(t *testing.T) {
	a := New(0, 0, []pciaddr.Slot{{Bus: 0, Slot: 0, Func: 0}, {Bus: 0, Slot: 1, Func: 0}})

	got, ok := a.NextSlot()
	if !ok || got != (pciaddr.Slot{Bus: 0, Slot: 2, Func: 0}) {
		t.Fatalf("got %+v ok=%v, want 0:2:0", got, ok)
	}
}

func TestNextSlotAdvancesBusAtBoundary(t *testing.T) {
	a := New(0, 31, nil)
	got, ok := a.NextSlot()
	if !ok || got != (pciaddr.Slot{Bus: 1, Slot: 0, Func: 0}) {
		t.Fatalf("got %+v ok=%v, want 1:0:0", got, ok)
	}
}

func TestNoDuplicateIssuance(t *testing.T) {
	a := New(0, 0, nil)
	seen := map[pciaddr.Slot]bool{}
	for i := 0; i < 40; i++ {
		s, ok := a.NextSlot()
		if !ok {
			t.Fatalf("unexpected exhaustion at i=%d", i)
		}
		if seen[s] {
			t.Fatalf("slot %+v issued twice", s)
		}
		seen[s] = true
	}
}

func TestTryTakeSpecificBusPastCursor(t *testing.T) {
	a := New(1, 0, nil)
	if _, ok := a.TryTakeSpecificBus(0); ok {
		t.Fatal("expected failure: cursor already past bus 0")
	}
}

// TestExplicitNonzeroFuncDoesNotReserveWholeSlot guards against
// over-reservation: an explicit placement at a nonzero function must leave
// function 0 on that same (bus, slot) available to the cursor.
func TestExplicitNonzeroFuncDoesNotReserveWholeSlot(t *testing.T) {
	a := New(0, 0, []pciaddr.Slot{{Bus: 0, Slot: 5, Func: 1}})

	got, ok := a.TryTakeSpecificBusSlot(0, 5)
	if !ok {
		t.Fatal("expected (0,5,0) to still be available")
	}
	if got != (pciaddr.Slot{Bus: 0, Slot: 5, Func: 0}) {
		t.Fatalf("got %+v, want 0:5:0", got)
	}
}
