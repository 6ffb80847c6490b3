package device

import (
	"fmt"

	"github.com/project-machine/bhyverun/internal/condition"
)

// Nvme is an nvme emulated PCI device. Its backing store is either a
// filesystem path or a bare ramdisk of Ram megabytes; exactly one of Path
// or Ram is set.
type Nvme struct {
	Path    *string
	Ram     *uint64
	Qsz     *uint32
	Ioslots *uint32
	Sectsz  *uint32
	Ser     *string
	Eui64   *uint32
	Dsm     *string
}

// Preconditions asserts the backing file exists; a ram-backed nvme has no
// filesystem precondition.
func (n Nvme) Preconditions() condition.Condition {
	if n.Path == nil {
		return condition.NoCond{}
	}
	return condition.Existence{Resource: condition.FsEntity{Kind: condition.FsItem, Path: *n.Path}}
}

// EphemeralObjects returns nil; neither backing form is supervisor-owned.
func (Nvme) EphemeralObjects() []Resource { return nil }

// AsHypervisorArg renders "nvme,<devpath-or-ram=N>[,qsz=][,ioslots=]
// [,sectsz=][,ser=][,eui64=][,dsm=]".
func (n Nvme) AsHypervisorArg() string {
	var base string
	switch {
	case n.Path != nil:
		base = "nvme," + *n.Path
	case n.Ram != nil:
		base = fmt.Sprintf("nvme,ram=%d", *n.Ram)
	default:
		base = "nvme"
	}
	if n.Qsz != nil {
		base += fmt.Sprintf(",qsz=%d", *n.Qsz)
	}
	if n.Ioslots != nil {
		base += fmt.Sprintf(",ioslots=%d", *n.Ioslots)
	}
	if n.Sectsz != nil {
		base += fmt.Sprintf(",sectsz=%d", *n.Sectsz)
	}
	if n.Ser != nil {
		base += ",ser=" + *n.Ser
	}
	if n.Eui64 != nil {
		base += fmt.Sprintf(",eui64=%d", *n.Eui64)
	}
	if n.Dsm != nil {
		base += ",dsm=" + *n.Dsm
	}
	return base
}
