package device

import (
	"fmt"

	"github.com/project-machine/bhyverun/internal/condition"
)

// AhciFrontend is shared by AhciHd and AhciCd: both carry the same fields
// and serialization shape, differing only in their bhyve device name.
type AhciFrontend struct {
	Path  string
	Nmrr  *uint32
	Ser   *string
	Rev   *string
	Model *string
}

func (a AhciFrontend) preconditions() condition.Condition {
	return condition.Existence{Resource: condition.FsEntity{Kind: condition.FsItem, Path: a.Path}}
}

func (a AhciFrontend) asHypervisorArg(kind string) string {
	base := kind + "," + a.Path
	if a.Nmrr != nil {
		base += fmt.Sprintf(",nmrr=%d", *a.Nmrr)
	}
	if a.Ser != nil {
		base += ",ser=" + *a.Ser
	}
	if a.Rev != nil {
		base += ",rev=" + *a.Rev
	}
	if a.Model != nil {
		base += ",model=" + *a.Model
	}
	return base
}

// AhciHd is an ahci-hd emulated PCI device.
type AhciHd struct{ AhciFrontend }

func (a AhciHd) Preconditions() condition.Condition { return a.preconditions() }
func (AhciHd) EphemeralObjects() []Resource         { return nil }
func (a AhciHd) AsHypervisorArg() string            { return a.asHypervisorArg("ahci-hd") }

// AhciCd is an ahci-cd emulated PCI device.
type AhciCd struct{ AhciFrontend }

func (a AhciCd) Preconditions() condition.Condition { return a.preconditions() }
func (AhciCd) EphemeralObjects() []Resource         { return nil }
func (a AhciCd) AsHypervisorArg() string            { return a.asHypervisorArg("ahci-cd") }
