package device

import (
	"fmt"

	"github.com/project-machine/bhyverun/internal/condition"
)

// VirtioNet is a virtio-net emulated PCI device.
type VirtioNet struct {
	Backend string
	Name    string
	Mtu     *uint32
	Mac     *string
}

// Preconditions asserts the declared network backend is ready to attach.
func (v VirtioNet) Preconditions() condition.Condition {
	return condition.NetworkBackendAvailable{Kind: v.Backend, Name: v.Name}
}

// EphemeralObjects returns nil; virtio-net does not create host objects
// the supervisor owns (the tap interface itself outlives the VM, per
// spec §9's open question).
func (VirtioNet) EphemeralObjects() []Resource { return nil }

// AsHypervisorArg renders "virtio-net,<name>,type=<kind>[,mtu=][,mac=]".
func (v VirtioNet) AsHypervisorArg() string {
	base := fmt.Sprintf("virtio-net,%s,type=%s", v.Name, v.Backend)
	if v.Mtu != nil {
		base += fmt.Sprintf(",mtu=%d", *v.Mtu)
	}
	if v.Mac != nil {
		base += fmt.Sprintf(",mac=%s", *v.Mac)
	}
	return base
}
