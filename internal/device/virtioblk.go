package device

import (
	"fmt"

	"github.com/project-machine/bhyverun/internal/condition"
)

// VirtioBlk is a virtio-blk emulated PCI device.
type VirtioBlk struct {
	Path               string
	Nocache            bool
	Direct             bool
	Ro                 bool
	Nodelete           bool
	LogicalSectorSize  *uint32
	PhysicalSectorSize *uint32
}

// Preconditions asserts the backing file exists.
func (v VirtioBlk) Preconditions() condition.Condition {
	return condition.Existence{Resource: condition.FsEntity{Kind: condition.File, Path: v.Path}}
}

// EphemeralObjects returns nil; the backing file is not owned by the
// supervisor.
func (VirtioBlk) EphemeralObjects() []Resource { return nil }

// AsHypervisorArg renders
// "virtio-blk,<path>[,direct][,nocache][,ro][,nodelete][,sectorsize=L[/P]]".
func (v VirtioBlk) AsHypervisorArg() string {
	base := "virtio-blk," + v.Path
	if v.Direct {
		base += ",direct"
	}
	if v.Nocache {
		base += ",nocache"
	}
	if v.Ro {
		base += ",ro"
	}
	if v.Nodelete {
		base += ",nodelete"
	}
	if v.LogicalSectorSize != nil {
		if v.PhysicalSectorSize != nil {
			base += fmt.Sprintf(",sectorsize=%d/%d", *v.LogicalSectorSize, *v.PhysicalSectorSize)
		} else {
			base += fmt.Sprintf(",sectorsize=%d", *v.LogicalSectorSize)
		}
	}
	return base
}
