package device

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/project-machine/bhyverun/internal/condition"
	"github.com/project-machine/bhyverun/internal/hostprobe"
	"github.com/project-machine/bhyverun/internal/pciaddr"
)

// ErrInvalidUnit is returned when a passthru declaration cannot be resolved
// to a concrete host PCI slot, either because the lookup fields are
// malformed or because no host device matches them.
var ErrInvalidUnit = errors.New("invalid unit")

// PciPassthru is a pci-passthru emulated PCI device. By the time one
// exists, Src has already been resolved to a concrete host slot, either
// taken directly from the declaration or via ResolvePciPassthru's
// vendor/device lookup.
type PciPassthru struct {
	Src pciaddr.Slot
	Rom *string
}

// Preconditions asserts the host slot is passthru-eligible and, if a rom
// file was declared, that it exists.
func (p PciPassthru) Preconditions() condition.Condition {
	children := []condition.Condition{condition.ValidPassthruDevice{Slot: p.Src}}
	if p.Rom != nil {
		children = append(children, condition.Existence{
			Resource: condition.FsEntity{Kind: condition.File, Path: *p.Rom},
		})
	}
	return condition.NestedConditions{CondName: "passthru", Conditions: children}
}

// EphemeralObjects returns nil; the ppt binding outlives the VM by design.
func (PciPassthru) EphemeralObjects() []Resource { return nil }

// AsHypervisorArg renders "passthru,<bus>/<slot>/<func>[,rom=]".
func (p PciPassthru) AsHypervisorArg() string {
	base := "passthru," + p.Src.AsPassthruArg()
	if p.Rom != nil {
		base += ",rom=" + *p.Rom
	}
	return base
}

// parseDecoratedHex parses a "0x"-prefixed, exactly-10-character hex string
// (4 bytes: two packed 16-bit fields) into its high and low halves.
func parseDecoratedHex(s string) (hi, lo uint16, err error) {
	if len(s) != 10 || s[0:2] != "0x" {
		return 0, 0, errors.Wrapf(ErrInvalidUnit, "malformed hex selector %q", s)
	}
	v, err := strconv.ParseUint(s[2:], 16, 32)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrInvalidUnit, "malformed hex selector %q", s)
	}
	return uint16((v & 0xffff0000) >> 16), uint16(v & 0x0000ffff), nil
}

// ResolvePciPassthru resolves a passthru declaration to a concrete
// PciPassthru, either using src directly when given, or scanning the
// host's PCI enumeration for a device whose (vendor, subvendor, device,
// subdevice) matches the decorated hex strings in vendorHex/deviceHex.
func ResolvePciPassthru(src *pciaddr.Slot, vendorHex, deviceHex *string, rom *string) (*PciPassthru, error) {
	if src != nil {
		return &PciPassthru{Src: *src, Rom: rom}, nil
	}
	if vendorHex == nil || deviceHex == nil {
		return nil, errors.Wrap(ErrInvalidUnit, "passthru device requires either src or a vendor/device lookup")
	}

	v1, v2, err := parseDecoratedHex(*vendorHex)
	if err != nil {
		return nil, err
	}
	d1, d2, err := parseDecoratedHex(*deviceHex)
	if err != nil {
		return nil, err
	}

	devices, err := hostprobe.ListPciDevices()
	if err != nil {
		return nil, errors.Wrap(err, "listing host PCI devices for passthru lookup")
	}

	for _, dev := range devices {
		if dev.Vendor == v1 && dev.Subvendor == v2 && dev.Device == d1 && dev.Subdevice == d2 {
			return &PciPassthru{Src: dev.Slot, Rom: rom}, nil
		}
	}

	return nil, errors.Wrapf(ErrInvalidUnit, "no host PCI device matches vendor=%s device=%s", *vendorHex, *deviceHex)
}
