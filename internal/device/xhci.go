package device

import "github.com/project-machine/bhyverun/internal/condition"

// Xhci is a USB xhci tablet emulated PCI device; bhyve's xhci model is
// fixed to a single tablet slot, so there is nothing to configure.
type Xhci struct{}

// Preconditions always succeeds; xhci has no host-side requirements.
func (Xhci) Preconditions() condition.Condition { return condition.NoCond{} }

// EphemeralObjects returns nil.
func (Xhci) EphemeralObjects() []Resource { return nil }

// AsHypervisorArg renders the fixed "xhci,tablet" argument.
func (Xhci) AsHypervisorArg() string { return "xhci,tablet" }
