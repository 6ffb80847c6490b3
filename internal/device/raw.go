package device

import "github.com/project-machine/bhyverun/internal/condition"

// Raw is an escape hatch for a device argument the spec's closed set does
// not otherwise model: the declared string is passed to bhyve verbatim.
type Raw struct {
	Arg string
}

// Preconditions always succeeds; a raw device carries no known
// preconditions since its contents are opaque to the supervisor.
func (Raw) Preconditions() condition.Condition { return condition.NoCond{} }

// EphemeralObjects returns nil.
func (Raw) EphemeralObjects() []Resource { return nil }

// AsHypervisorArg returns the declared string unchanged.
func (r Raw) AsHypervisorArg() string { return r.Arg }
