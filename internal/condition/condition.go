package condition

import (
	"fmt"

	"github.com/project-machine/bhyverun/internal/hostprobe"
	"github.com/project-machine/bhyverun/internal/pciaddr"
)

// Condition exposes a name and a check; checking either succeeds or
// produces an Assertion describing the failure and its recoverability.
type Condition interface {
	Name() string
	Check() (Assertion, bool)
}

func fatal(name Condition, reason string) (Assertion, bool) {
	return Fatal(name.Name(), reason), false
}

// NoCond always succeeds. Used by devices with no preconditions (xhci, raw).
type NoCond struct{}

func (NoCond) Name() string             { return "nop" }
func (NoCond) Check() (Assertion, bool) { return Assertion{}, true }

// GenericFatal always fails fatally with a fixed message. Used to surface
// configuration-level mistakes (e.g. duplicated LPC devices) through the
// same assertion tree as runtime checks.
type GenericFatal struct {
	CondName string
	Message  string
}

func (g GenericFatal) Name() string { return g.CondName }
func (g GenericFatal) Check() (Assertion, bool) {
	return fatal(g, g.Message)
}

// FatalIoError wraps a host I/O failure (e.g. a failed probe subprocess) as
// a fatal assertion.
type FatalIoError struct {
	Err error
}

func (FatalIoError) Name() string { return "io_error" }
func (f FatalIoError) Check() (Assertion, bool) {
	return fatal(f, fmt.Sprintf("%+v", f.Err))
}

// FsEntityKind distinguishes what shape of filesystem object a condition
// expects.
type FsEntityKind int

const (
	// File requires a regular file.
	File FsEntityKind = iota
	// Directory requires a directory.
	Directory
	// Node requires a regular file (device nodes created by bhyve show up
	// as regular files from the supervisor's point of view until opened).
	Node
	// FsItem requires only that the path is reachable, regardless of type.
	FsItem
)

// FsEntity names a filesystem object and the shape it must have.
type FsEntity struct {
	Kind FsEntityKind
	Path string
}

func (e FsEntity) describe() string {
	switch e.Kind {
	case Directory:
		return "directory"
	case Node, File:
		return "regular file"
	default:
		return "item"
	}
}

func (e FsEntity) exists() error {
	st, err := hostprobe.Stat(e.Path)
	if err != nil {
		return fmt.Errorf("entity at %q does not exist or is not accessible", e.Path)
	}
	if !st.Exists {
		return fmt.Errorf("entity at %q does not exist or is not accessible", e.Path)
	}
	switch e.Kind {
	case Directory:
		if !st.IsDirectory {
			return fmt.Errorf("entity %q exists but is not a directory", e.Path)
		}
	case Node, File:
		if !st.IsRegular {
			return fmt.Errorf("entity %q exists but is not a %s", e.Path, e.describe())
		}
	}
	return nil
}

// Existence requires that Resource exist (and, for File/Directory/Node,
// that it be the right kind).
type Existence struct {
	Resource FsEntity
}

func (Existence) Name() string { return "exists" }
func (e Existence) Check() (Assertion, bool) {
	if err := e.Resource.exists(); err != nil {
		return fatal(e, err.Error())
	}
	return Assertion{}, true
}

// Absence requires that Resource not exist, used for virtio-console ports
// that bhyve itself must create.
type Absence struct {
	Resource FsEntity
}

func (Absence) Name() string { return "absence" }
func (a Absence) Check() (Assertion, bool) {
	if err := a.Resource.exists(); err == nil {
		return fatal(a, "resource already exists")
	}
	return Assertion{}, true
}

// ValidBhyveVPciSlot asserts bhyve's vPCI placement bound (slot<=31,
// func<=7).
type ValidBhyveVPciSlot struct {
	Slot pciaddr.Slot
}

func (ValidBhyveVPciSlot) Name() string { return "valid_bhyve_vpci_slot" }
func (v ValidBhyveVPciSlot) Check() (Assertion, bool) {
	if v.Slot.Slot > 31 {
		return fatal(v, "invalid vPCI slot. Allowed values are between 0 to 31")
	}
	if v.Slot.Func > 7 {
		return fatal(v, "invalid vPCI slot. Allowed values are between 0 to 7")
	}
	return Assertion{}, true
}

// ValidPassthruDevice asserts that the host PCI device at Slot is eligible
// for passthru, repairing (attaching the ppt driver) when it is present but
// not yet bound to ppt.
type ValidPassthruDevice struct {
	Slot pciaddr.Slot
}

func (v ValidPassthruDevice) Name() string {
	return fmt.Sprintf("pci0:%d:%d:%d", v.Slot.Bus, v.Slot.Slot, v.Slot.Func)
}

func (v ValidPassthruDevice) Check() (Assertion, bool) {
	dev, err := hostprobe.PciDeviceAt(v.Slot)
	if err != nil || dev == nil {
		return fatal(v, "invalid PCI device")
	}

	if dev.HeaderType != 0x00 {
		if dev.HeaderType == 0x7f {
			return fatal(v, "this device has invalid HDR of 0x7f, if this is a SR-IOV "+
				"VF, please check if the motherboard you are using supports "+
				"and enabled SR-IOV")
		}
		return fatal(v, fmt.Sprintf("cannot passthru non-endpoint device, header type: %d", dev.HeaderType))
	}

	if hostprobe.IsPptBound(dev.DeviceName) {
		return Assertion{}, true
	}

	slot := v.Slot
	return Recoverable(v.Name(), "pci-attach-ppt", func() error {
		return hostprobe.ForcePassthru(slot)
	}), false
}

// NetworkBackendAvailable asserts that the named network backend is ready
// for a virtio-net device; currently only Tap backends are probed, the
// others always succeed (the original notes this is a known gap).
type NetworkBackendAvailable struct {
	Kind string
	Name string
}

func (NetworkBackendAvailable) Name() string { return "network-backend-available" }
func (n NetworkBackendAvailable) Check() (Assertion, bool) {
	if n.Kind != "tap" {
		return Assertion{}, true
	}

	ifaces, err := hostprobe.TapIfaces()
	if err != nil {
		return fatal(n, err.Error())
	}

	found := false
	for _, i := range ifaces {
		if i == n.Name {
			found = true
			break
		}
	}

	if !found {
		name := n.Name
		return Recoverable("tap-iface", "create-tap", func() error {
			return hostprobe.CreateTap(name)
		}), false
	}

	opened, err := hostprobe.IsTapOpened(n.Name)
	if err != nil {
		return fatal(n, err.Error())
	}
	if opened {
		return fatal(n, "tap device exists but is already opened by another process")
	}
	return Assertion{}, true
}

// LpcSlotAssignment asserts the LPC device lives on bus 0, the only bus
// bhyve allows it on.
type LpcSlotAssignment struct {
	Slot pciaddr.Slot
}

func (LpcSlotAssignment) Name() string { return "lpc_bus" }
func (l LpcSlotAssignment) Check() (Assertion, bool) {
	if l.Slot.Bus != 0 {
		return fatal(l, "lpc device can only be configured on bus 0")
	}
	return Assertion{}, true
}

// ValidResolution asserts the framebuffer's width/height are either both
// unset or both within bhyve's supported window.
type ValidResolution struct {
	W, H *uint32
}

func (ValidResolution) Name() string { return "fbuf_resolution" }
func (v ValidResolution) Check() (Assertion, bool) {
	if v.W == nil && v.H == nil {
		return Assertion{}, true
	}
	if v.W == nil || v.H == nil {
		return fatal(v, "w and h must either both be specified or both unspecified")
	}
	w, h := *v.W, *v.H
	if w > 1920 || h > 1200 {
		return fatal(v, fmt.Sprintf("maximum resolution is 1920x1200, got %dx%d", w, h))
	}
	if w < 640 || h < 480 {
		return fatal(v, fmt.Sprintf("minimum resolution is 640x480, got %dx%d", w, h))
	}
	return Assertion{}, true
}

// KernelFeature asserts that a kernel module is loaded on the host.
type KernelFeature struct {
	Kmod string
}

func (k KernelFeature) Name() string { return "kmod:" + k.Kmod }
func (k KernelFeature) Check() (Assertion, bool) {
	loaded, err := hostprobe.KldLoaded(k.Kmod)
	if err != nil {
		return fatal(k, fmt.Sprintf("invalid kmod %s", k.Kmod))
	}
	if !loaded {
		return fatal(k, fmt.Sprintf("kernel module %s has not loaded", k.Kmod))
	}
	return Assertion{}, true
}

// NestedConditions groups a labeled list of sub-conditions into a single
// Condition; a failing child contributes one labeled Container branch, the
// rest are silently satisfied.
type NestedConditions struct {
	CondName   string
	Conditions []Condition
}

func (n NestedConditions) Name() string { return n.CondName }
func (n NestedConditions) Check() (Assertion, bool) {
	var failures []Child
	for _, c := range n.Conditions {
		if a, ok := c.Check(); !ok {
			failures = append(failures, Child{Label: c.Name(), Assertion: a})
		}
	}
	if len(failures) == 0 {
		return Assertion{}, true
	}
	return Container(failures), false
}
