// Package device implements the closed device-capability model from spec
// §4.3: every emulated PCI variant and LPC device satisfies the capability
// trio {Preconditions, EphemeralObjects, AsHypervisorArg}. The set is
// closed (spec §9 rejects an open trait/interface extension point in favor
// of a finite sum type), so new variants are added here, not discovered via
// plugin registration.
package device

import (
	"os"

	"github.com/pkg/errors"

	"github.com/project-machine/bhyverun/internal/condition"
)

// Device is the capability set every emulated PCI variant and LPC device
// implements.
type Device interface {
	// Preconditions returns the (possibly nested) condition tree checked
	// before the hypervisor is launched.
	Preconditions() condition.Condition
	// EphemeralObjects lists host objects this device's presence creates
	// that must be cleaned up after the hypervisor exits. Most variants
	// return nil.
	EphemeralObjects() []Resource
	// AsHypervisorArg serializes the device to its bhyve "-s"/"-l" argument
	// value (without the leading flag).
	AsHypervisorArg() string
}

// ResourceKind distinguishes the three ephemeral resource shapes spec §3
// names.
type ResourceKind int

const (
	// ResourceFsItem is a generic filesystem path.
	ResourceFsItem ResourceKind = iota
	// ResourceNode is a device node (e.g. a virtio-console port).
	ResourceNode
	// ResourceIface is a host network interface.
	ResourceIface
)

// Resource is a host object that may need releasing once the hypervisor
// exits.
type Resource struct {
	Kind ResourceKind
	Path string // for FsItem/Node
	Name string // for Iface
	Tag  string // interface kind (e.g. "tap"), only meaningful for Iface
}

// Exists reports whether the resource is still present on the host.
func (r Resource) Exists() bool {
	if r.Kind == ResourceIface {
		return true
	}
	st, err := os.Stat(r.Path)
	return err == nil && st != nil
}

// Release removes a filesystem-backed resource (FsItem/Node). An Iface
// resource is left alone: spec §9 leaves interface teardown out of scope,
// matching the original's own "TODO: Handle network interface existence
// logic" gap.
func (r Resource) Release() error {
	if r.Kind == ResourceIface {
		return nil
	}
	if err := os.Remove(r.Path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", r.Path)
	}
	return nil
}

// String renders the resource for operator-facing messages.
func (r Resource) String() string {
	switch r.Kind {
	case ResourceIface:
		return "network interface: (" + r.Name + ")"
	default:
		return "file: (" + r.Path + ")"
	}
}
