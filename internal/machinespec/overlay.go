package machinespec

import "github.com/pkg/errors"

// ErrProfileNotFound is returned when a target name does not exist in
// spec.Targets.
var ErrProfileNotFound = errors.New("target profile not found")

// ConsumeTarget looks up name in spec.Targets and applies it via Consume,
// or returns ErrProfileNotFound if no such target exists.
func (spec *VmSpec) ConsumeTarget(name string) error {
	mod, ok := spec.Targets[name]
	if !ok {
		return errors.Wrapf(ErrProfileNotFound, "%q", name)
	}
	spec.Consume(mod)
	return nil
}

// Consume applies patch over spec using the "replace-if-present" rule from
// spec §4.6: every Option-shaped scalar is overwritten only when the patch
// carries a value (never back to unset), emulations are appended rather
// than replaced, and Cpu/Mem/Name/HostbridgeBrand replace outright when
// patch supplies them. Each of the seven guest flags is replaced
// independently through Flags.Apply, so setting one in a target overlay
// never reverts the other six.
func (spec *VmSpec) Consume(patch VmSpecMod) {
	if patch.Cpu != nil {
		spec.Cpu = *patch.Cpu
	}
	if patch.Mem != nil {
		spec.Mem = *patch.Mem
	}
	if patch.BootOpt != nil {
		spec.BootOpt = patch.BootOpt
	}
	if len(patch.Emulations) > 0 {
		spec.Emulations = append(spec.Emulations, patch.Emulations...)
	}
	if patch.Name != nil {
		spec.Name = *patch.Name
	}
	if patch.HostbridgeBrand != nil {
		spec.HostbridgeBrand = *patch.HostbridgeBrand
	}
	if patch.LpcSlot != nil {
		spec.LpcSlot = patch.LpcSlot
	}
	if patch.Com1 != nil {
		spec.Com1 = patch.Com1
	}
	if patch.Com2 != nil {
		spec.Com2 = patch.Com2
	}
	if patch.Com3 != nil {
		spec.Com3 = patch.Com3
	}
	if patch.Com4 != nil {
		spec.Com4 = patch.Com4
	}
	if patch.Gdb != nil {
		spec.Gdb = patch.Gdb
	}
	if patch.Uuid != nil {
		spec.Uuid = patch.Uuid
	}
	if patch.Graphic != nil {
		spec.Graphic = patch.Graphic
	}
	spec.Flags = spec.Flags.Apply(patch.Flags)
	if patch.ExtraOptions != nil {
		spec.ExtraOptions = patch.ExtraOptions
	}
	if patch.NextTarget != nil {
		spec.NextTarget = patch.NextTarget
	}
	if patch.PostStartScript != nil {
		spec.PostStartScript = patch.PostStartScript
	}
}
