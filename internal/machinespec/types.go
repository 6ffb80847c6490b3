// Package machinespec implements the declarative machine description:
// VmSpec and its overlay VmSpecMod, the JSON wire format for every device
// variant, and the "replace-if-present, append-for-emulations" merge
// semantics a target overlay applies over the root document.
package machinespec

import (
	"github.com/gofrs/uuid"

	"github.com/project-machine/bhyverun/internal/device"
	"github.com/project-machine/bhyverun/internal/pciaddr"
)

// EmulationVariant is the device capability set an Emulation entry carries;
// an alias for device.Device kept local to this package's vocabulary.
type EmulationVariant = device.Device

// DefaultHostbridgeBrand is the bhyve hostbridge device name used when a
// VmSpec does not declare one.
const DefaultHostbridgeBrand = "hostbridge"

// Flags are the guest boolean switches forwarded to bhyve as single-letter
// arguments in Component Design §4.1.
type Flags struct {
	UtcClock          bool `json:"utc_clock"`
	YieldOnHlt        bool `json:"yield_on_hlt"`
	GenerateAcpi      bool `json:"generate_acpi"`
	WireGuestMem      bool `json:"wire_guest_mem"`
	ForceMsi          bool `json:"force_msi"`
	DisableMptableGen bool `json:"disable_mptable_gen"`
	PowerOffDestroyVm bool `json:"power_off_destroy_vm"`
}

// DefaultFlags returns the guest flag defaults: clock/hlt-yield/acpi on,
// everything else off.
func DefaultFlags() Flags {
	return Flags{
		UtcClock:     true,
		YieldOnHlt:   true,
		GenerateAcpi: true,
	}
}

// FlagsMod is the overlay shape for the seven guest flags: each is an
// independent optional bool, matching the original's own per-field
// `Option<bool>` (`_examples/original_source/src/spec/mod.rs`'s VmSpecMod)
// rather than bundling them behind one all-or-nothing pointer. Leaving a
// field nil means "leave the current value untouched"; this is what lets
// a target overlay flip a single flag without reverting the other six to
// Go's zero value.
type FlagsMod struct {
	UtcClock          *bool `json:"utc_clock,omitempty"`
	YieldOnHlt        *bool `json:"yield_on_hlt,omitempty"`
	GenerateAcpi      *bool `json:"generate_acpi,omitempty"`
	WireGuestMem      *bool `json:"wire_guest_mem,omitempty"`
	ForceMsi          *bool `json:"force_msi,omitempty"`
	DisableMptableGen *bool `json:"disable_mptable_gen,omitempty"`
	PowerOffDestroyVm *bool `json:"power_off_destroy_vm,omitempty"`
}

// Apply overlays mod over f, replacing only the fields mod sets (spec
// §4.6's replace-if-present rule, applied per flag rather than to the
// bundle as a whole).
func (f Flags) Apply(mod FlagsMod) Flags {
	if mod.UtcClock != nil {
		f.UtcClock = *mod.UtcClock
	}
	if mod.YieldOnHlt != nil {
		f.YieldOnHlt = *mod.YieldOnHlt
	}
	if mod.GenerateAcpi != nil {
		f.GenerateAcpi = *mod.GenerateAcpi
	}
	if mod.WireGuestMem != nil {
		f.WireGuestMem = *mod.WireGuestMem
	}
	if mod.ForceMsi != nil {
		f.ForceMsi = *mod.ForceMsi
	}
	if mod.DisableMptableGen != nil {
		f.DisableMptableGen = *mod.DisableMptableGen
	}
	if mod.PowerOffDestroyVm != nil {
		f.PowerOffDestroyVm = *mod.PowerOffDestroyVm
	}
	return f
}

// GraphicOption is the convenience top-level "graphic" field: when present
// the compiler emits a framebuffer device (and, unless xhci_table is
// explicitly false, an xhci tablet device) without the caller needing to
// place either in emulations by hand.
type GraphicOption struct {
	Host      string  `json:"host"`
	Port      *uint16 `json:"port,omitempty"`
	Vga       *string `json:"vga,omitempty"`
	Password  *string `json:"password,omitempty"`
	Wait      bool    `json:"wait"`
	Width     *uint32 `json:"width,omitempty"`
	Height    *uint32 `json:"height,omitempty"`
	XhciTable *bool   `json:"xhci_table,omitempty"`
}

// WantsXhci reports whether an xhci tablet device should accompany the
// framebuffer; defaults to true when unset.
func (g GraphicOption) WantsXhci() bool {
	return g.XhciTable == nil || *g.XhciTable
}

// ToFramebuffer converts the convenience graphic block into the concrete
// device the compiler places on its allocated slot.
func (g GraphicOption) ToFramebuffer() device.Framebuffer {
	host := g.Host
	return device.Framebuffer{
		Host:   &host,
		Port:   g.Port,
		W:      g.Width,
		H:      g.Height,
		Vga:    g.Vga,
		Passwd: g.Password,
		Wait:   g.Wait,
	}
}

// Emulation is one entry in the declared device list: an optional explicit
// slot, the auto-repair consent bit, and the concrete device variant.
type Emulation struct {
	Slot   *pciaddr.Slot
	Fix    bool
	Device EmulationVariant
}

// VmSpec is the full declarative machine description (spec §3). It is
// immutable once loaded; Consume produces the per-iteration effective copy.
type VmSpec struct {
	Cpu             CpuSpec
	Mem             MemorySpec
	BootOpt         *BootOptions
	Emulations      []Emulation
	Name            string
	HostbridgeBrand string
	LpcSlot         *pciaddr.Slot
	Com1            *string
	Com2            *string
	Com3            *string
	Com4            *string
	Gdb             *string
	Uuid            *uuid.UUID
	Graphic         *GraphicOption
	Flags           Flags
	ExtraOptions    *string
	Targets         map[string]VmSpecMod
	NextTarget      *string
	PostStartScript *string
}

// VmSpecMod is the overlay shape: every field optional, applied over a
// VmSpec by Consume with "replace-if-present, emulations append, Option
// never reverts to None" semantics (spec §4.6).
type VmSpecMod struct {
	Cpu             *CpuSpec
	Mem             *MemorySpec
	BootOpt         *BootOptions
	Emulations      []Emulation
	Name            *string
	HostbridgeBrand *string
	LpcSlot         *pciaddr.Slot
	Com1            *string
	Com2            *string
	Com3            *string
	Com4            *string
	Gdb             *string
	Uuid            *uuid.UUID
	Graphic         *GraphicOption
	Flags           FlagsMod
	ExtraOptions    *string
	NextTarget      *string
	PostStartScript *string
}

// Clone returns a deep-enough copy of spec for the loop's "fresh clone of
// the root" semantics: only Emulations (a slice) needs copying since every
// other field is either a value type or replaced wholesale, never mutated
// in place, by Consume.
func (spec VmSpec) Clone() VmSpec {
	out := spec
	out.Emulations = append([]Emulation(nil), spec.Emulations...)
	return out
}
