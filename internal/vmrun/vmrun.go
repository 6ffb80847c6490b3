// Package vmrun compiles a machinespec.VmSpec into a VmRun: the fully
// bound invocation plan with every slot assigned and every declared device
// resolved to its concrete form, ready to be turned into a hypervisor argv
// or walked for preconditions and ephemeral cleanup.
package vmrun

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/project-machine/bhyverun/internal/condition"
	"github.com/project-machine/bhyverun/internal/device"
	"github.com/project-machine/bhyverun/internal/machinespec"
	"github.com/project-machine/bhyverun/internal/pciaddr"
	"github.com/project-machine/bhyverun/internal/slotalloc"
)

// Errors mirror the Format error kinds in spec §7 that the compiler itself
// can raise (parse-time errors like InvalidPciSlotRepr live with the types
// that parse them).
var (
	ErrHostbridgeSlotNotSatisfy = errors.New("no slot available for hostbridge")
	ErrLpcSlotNotSatisfy        = errors.New("no slot available for lpc")
	ErrRunOutOfSlots            = errors.New("no slot available for device")
)

// EmulatedPciDevice is one compiled emulation: a bound slot, the caller's
// auto-repair consent, and the concrete device.
type EmulatedPciDevice struct {
	Slot    pciaddr.Slot
	WantFix bool
	Variant device.Device
}

// VmRun is the fully compiled invocation: every field concrete, ready to
// render to argv or walk for preconditions.
type VmRun struct {
	Name            string
	Cpu             machinespec.CpuSpec
	Mem             machinespec.MemorySpec
	Gdb             *string
	Uuid            *string
	Flags           machinespec.Flags
	ExtraOptions    []string
	ExtraArgs       []string
	PostStartScript *string
	HostbridgeSlot  pciaddr.Slot
	HostbridgeBrand string
	LpcSlot         pciaddr.Slot
	Devices         []EmulatedPciDevice
	LpcDevices      []device.LpcDevice
}

// Build compiles spec into a VmRun, appending extraArgs verbatim to the
// eventual hypervisor invocation (spec §4.1).
func Build(spec machinespec.VmSpec, extraArgs []string) (*VmRun, error) {
	reserved := collectExplicitSlots(spec)
	alloc := slotalloc.New(0, 0, reserved)

	hostbridgeSlot, ok := alloc.TryTakeSpecificBus(0)
	if !ok {
		return nil, ErrHostbridgeSlotNotSatisfy
	}

	lpcSlot, ok := allocateLpcSlot(alloc, spec.LpcSlot)
	if !ok {
		return nil, ErrLpcSlotNotSatisfy
	}

	bootopt := spec.BootOpt
	if bootopt == nil {
		d := machinespec.DefaultBootOptions()
		bootopt = &d
	}
	lpcDevices := []device.LpcDevice{
		{Slot: lpcSlot, Variant: device.LpcBootrom{Rom: bootopt.Bootrom, Varfile: bootopt.Varfile}},
	}

	devices := make([]EmulatedPciDevice, 0, len(spec.Emulations))
	for _, emu := range spec.Emulations {
		slot := emu.Slot
		var bound pciaddr.Slot
		if slot != nil {
			bound = *slot
		} else {
			taken, ok := alloc.NextSlot()
			if !ok {
				return nil, ErrRunOutOfSlots
			}
			bound = taken
		}
		devices = append(devices, EmulatedPciDevice{Slot: bound, WantFix: emu.Fix, Variant: emu.Device})
	}

	for n, com := range []*string{spec.Com1, spec.Com2, spec.Com3, spec.Com4} {
		if com == nil {
			continue
		}
		lpcDevices = append(lpcDevices, device.LpcDevice{
			Slot:    lpcSlot,
			Variant: device.LpcCom{N: uint8(n + 1), Device: *com},
		})
	}

	if spec.Graphic != nil {
		fbSlot, ok := alloc.NextSlot()
		if !ok {
			return nil, ErrRunOutOfSlots
		}
		devices = append(devices, EmulatedPciDevice{Slot: fbSlot, Variant: spec.Graphic.ToFramebuffer()})

		if spec.Graphic.WantsXhci() {
			xhciSlot, ok := alloc.NextSlot()
			if !ok {
				return nil, ErrRunOutOfSlots
			}
			devices = append(devices, EmulatedPciDevice{Slot: xhciSlot, Variant: device.Xhci{}})
		}
	}

	var uuidStr *string
	if spec.Uuid != nil {
		s := spec.Uuid.String()
		uuidStr = &s
	}

	run := &VmRun{
		Name:            spec.Name,
		Cpu:             spec.Cpu,
		Mem:             spec.Mem,
		Gdb:             spec.Gdb,
		Uuid:            uuidStr,
		Flags:           spec.Flags,
		ExtraOptions:    splitExtraOptions(spec.ExtraOptions),
		ExtraArgs:       extraArgs,
		PostStartScript: spec.PostStartScript,
		HostbridgeSlot:  hostbridgeSlot,
		HostbridgeBrand: spec.HostbridgeBrand,
		LpcSlot:         lpcSlot,
		Devices:         devices,
		LpcDevices:      lpcDevices,
	}
	return run, nil
}

// collectExplicitSlots gathers every pre-placed slot so the allocator never
// hands one of them out (spec §4.1 step 1).
func collectExplicitSlots(spec machinespec.VmSpec) []pciaddr.Slot {
	var reserved []pciaddr.Slot
	for _, emu := range spec.Emulations {
		if emu.Slot != nil {
			reserved = append(reserved, *emu.Slot)
		}
	}
	if spec.LpcSlot != nil {
		reserved = append(reserved, *spec.LpcSlot)
	}
	return reserved
}

// allocateLpcSlot honors an explicit lpc_slot, else prefers (0,31), falling
// back to any free bus-0 slot.
func allocateLpcSlot(alloc *slotalloc.Allocator, explicit *pciaddr.Slot) (pciaddr.Slot, bool) {
	if explicit != nil {
		return *explicit, true
	}
	if slot, ok := alloc.TryTakeSpecificBusSlot(0, 31); ok {
		return slot, true
	}
	return alloc.TryTakeSpecificBus(0)
}

// splitExtraOptions shell-splits on single spaces, dropping empty tokens,
// per spec §4.1 step 9.
func splitExtraOptions(extra *string) []string {
	if extra == nil {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(*extra, " ") {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// Preconditions returns NestedConditions{"vm", [vpci, lpc]} per spec
// §4.4.1, synthesizing a GenericFatal for any LPC identifier seen more
// than once.
func (r *VmRun) Preconditions() condition.Condition {
	var vpci []condition.Condition
	for _, d := range r.Devices {
		vpci = append(vpci, d.Variant.Preconditions())
	}

	var lpc []condition.Condition
	seen := make(map[string]bool)
	for _, d := range r.LpcDevices {
		id := d.Variant.Identifier()
		if seen[id] {
			lpc = append(lpc, condition.GenericFatal{
				CondName: "duplicated_lpc_device",
				Message:  fmt.Sprintf("lpc device %q declared more than once", id),
			})
			continue
		}
		seen[id] = true
		lpc = append(lpc, d.Preconditions())
	}

	return condition.NestedConditions{
		CondName: "vm",
		Conditions: []condition.Condition{
			condition.NestedConditions{CondName: "vpci", Conditions: vpci},
			condition.NestedConditions{CondName: "lpc", Conditions: lpc},
		},
	}
}

// EphemeralObjects flattens every device's ephemeral-object list, used by
// the supervisor after the hypervisor exits.
func (r *VmRun) EphemeralObjects() []device.Resource {
	var out []device.Resource
	for _, d := range r.Devices {
		out = append(out, d.Variant.EphemeralObjects()...)
	}
	return out
}

// BhyveArgs renders the compiled run into the bhyve(8) argument vector
// (spec §6): boolean flags in declaration order (`-A -S -H -W -Y -u -D`),
// `-c`, `-m`, optional `-G`/`-U`, the hostbridge and lpc bridge `-s`
// entries, one `-s` per declared device, one `-l` per lpc-attached device,
// extra options and caller-supplied extra arguments, and finally the VM
// name as the trailing positional argument.
func (r *VmRun) BhyveArgs() []string {
	var argv []string

	pushYesno := func(cond bool, flag string) {
		if cond {
			argv = append(argv, flag)
		}
	}
	pushYesno(r.Flags.GenerateAcpi, "-A")
	pushYesno(r.Flags.WireGuestMem, "-S")
	pushYesno(r.Flags.YieldOnHlt, "-H")
	pushYesno(r.Flags.ForceMsi, "-W")
	pushYesno(r.Flags.DisableMptableGen, "-Y")
	pushYesno(r.Flags.UtcClock, "-u")
	pushYesno(r.Flags.PowerOffDestroyVm, "-D")

	argv = append(argv, "-c", r.Cpu.ToBhyveArg())
	argv = append(argv, "-m", fmt.Sprintf("%dK", r.Mem.KB))

	if r.Gdb != nil {
		argv = append(argv, "-G", *r.Gdb)
	}
	if r.Uuid != nil {
		argv = append(argv, "-U", *r.Uuid)
	}

	argv = append(argv, "-s", r.HostbridgeSlot.String()+","+r.HostbridgeBrand)
	argv = append(argv, "-s", r.LpcSlot.String()+",lpc")

	for _, d := range r.Devices {
		argv = append(argv, "-s", d.Slot.String()+","+d.Variant.AsHypervisorArg())
	}
	for _, l := range r.LpcDevices {
		argv = append(argv, "-l", l.AsHypervisorArg())
	}

	argv = append(argv, r.ExtraOptions...)
	argv = append(argv, r.ExtraArgs...)
	argv = append(argv, r.Name)

	return argv
}
