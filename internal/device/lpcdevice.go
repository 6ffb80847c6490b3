package device

import (
	"fmt"
	"strings"

	"github.com/project-machine/bhyverun/internal/condition"
	"github.com/project-machine/bhyverun/internal/pciaddr"
)

// LpcVariant is the sum type of devices the ISA-bridge LPC emulation can
// host: a bootrom, a serial port, or the test device.
type LpcVariant interface {
	// Identifier names the variant for duplicate detection: "bootrom",
	// "com<n>", or "testdev".
	Identifier() string
	Preconditions() condition.Condition
	AsHypervisorArg() string
}

// LpcBootrom is the UEFI firmware LPC variant.
type LpcBootrom struct {
	Rom     string
	Varfile *string
}

func (LpcBootrom) Identifier() string { return "bootrom" }

func (b LpcBootrom) Preconditions() condition.Condition {
	children := []condition.Condition{
		condition.Existence{Resource: condition.FsEntity{Kind: condition.File, Path: b.Rom}},
	}
	if b.Varfile != nil {
		children = append(children, condition.Existence{
			Resource: condition.FsEntity{Kind: condition.File, Path: *b.Varfile},
		})
	}
	return condition.NestedConditions{CondName: "bootrom", Conditions: children}
}

// AsHypervisorArg renders "bootrom,<rom>[,<varfile>]".
func (b LpcBootrom) AsHypervisorArg() string {
	base := "bootrom," + b.Rom
	if b.Varfile != nil {
		base += "," + *b.Varfile
	}
	return base
}

// LpcCom is a com1-com4 serial port LPC variant.
type LpcCom struct {
	N      uint8
	Device string
}

func (c LpcCom) Identifier() string { return fmt.Sprintf("com%d", c.N) }

func (c LpcCom) Preconditions() condition.Condition {
	var children []condition.Condition
	if c.N < 1 || c.N > 4 {
		children = append(children, condition.GenericFatal{
			CondName: c.Identifier(),
			Message:  "com number must be between 1 and 4",
		})
	}
	if c.Device != "stdio" && !strings.HasPrefix(c.Device, "nmdm") {
		children = append(children, condition.GenericFatal{
			CondName: c.Identifier(),
			Message:  fmt.Sprintf("invalid com device %q: must be \"stdio\" or an nmdm* path", c.Device),
		})
	}
	return condition.NestedConditions{CondName: c.Identifier(), Conditions: children}
}

// AsHypervisorArg renders "com<n>,<device>".
func (c LpcCom) AsHypervisorArg() string { return fmt.Sprintf("com%d,%s", c.N, c.Device) }

// LpcTestDev is bhyve's test-dev LPC variant; it carries no fields.
type LpcTestDev struct{}

func (LpcTestDev) Identifier() string                 { return "testdev" }
func (LpcTestDev) Preconditions() condition.Condition { return condition.NoCond{} }
func (LpcTestDev) AsHypervisorArg() string            { return "testdev" }

// LpcDevice pairs an LpcVariant with the PCI slot it was assigned; it must
// live on bus 0.
type LpcDevice struct {
	Slot    pciaddr.Slot
	Variant LpcVariant
}

// Preconditions asserts the bus-0 constraint alongside the variant's own
// checks.
func (l LpcDevice) Preconditions() condition.Condition {
	return condition.NestedConditions{
		CondName: l.Variant.Identifier(),
		Conditions: []condition.Condition{
			condition.LpcSlotAssignment{Slot: l.Slot},
			l.Variant.Preconditions(),
		},
	}
}

// EphemeralObjects returns nil; no LPC variant owns a host object the
// supervisor must release.
func (LpcDevice) EphemeralObjects() []Resource { return nil }

// AsHypervisorArg delegates to the variant.
func (l LpcDevice) AsHypervisorArg() string { return l.Variant.AsHypervisorArg() }
