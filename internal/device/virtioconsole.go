package device

import (
	"fmt"

	"github.com/project-machine/bhyverun/internal/condition"
)

// VirtioConsole is a virtio-console emulated PCI device. Each port is a
// path bhyve itself creates at launch, in declaration order, so the
// precondition is each port's Absence, not its Existence.
type VirtioConsole struct {
	Ports []string
}

// Preconditions asserts every port's backing path is currently free.
func (v VirtioConsole) Preconditions() condition.Condition {
	var children []condition.Condition
	for _, path := range v.Ports {
		children = append(children, condition.Absence{
			Resource: condition.FsEntity{Kind: condition.FsItem, Path: path},
		})
	}
	return condition.NestedConditions{CondName: "virtio-console", Conditions: children}
}

// EphemeralObjects returns one Node resource per port, so the supervisor
// removes the ports bhyve created once the hypervisor exits.
func (v VirtioConsole) EphemeralObjects() []Resource {
	out := make([]Resource, 0, len(v.Ports))
	for _, path := range v.Ports {
		out = append(out, Resource{Kind: ResourceNode, Path: path})
	}
	return out
}

// AsHypervisorArg renders "virtio-console[,port1=path1][,port2=path2]...",
// numbering ports by declaration order starting at 1.
func (v VirtioConsole) AsHypervisorArg() string {
	base := "virtio-console"
	for i, path := range v.Ports {
		base += fmt.Sprintf(",port%d=%s", i+1, path)
	}
	return base
}
