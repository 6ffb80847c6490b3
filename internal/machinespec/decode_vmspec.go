package machinespec

import (
	"encoding/json"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/project-machine/bhyverun/internal/pciaddr"
)

type rawVmSpec struct {
	Cpu             CpuSpec              `json:"cpu"`
	Mem             MemorySpec           `json:"mem"`
	BootOpt         *BootOptions         `json:"bootopt,omitempty"`
	Emulations      []Emulation          `json:"emulations,omitempty"`
	Name            string               `json:"name"`
	Hostbridge      *string              `json:"hostbridge,omitempty"`
	LpcSlot         *pciaddr.Slot        `json:"lpc_slot,omitempty"`
	Com1            *string              `json:"com1,omitempty"`
	Com2            *string              `json:"com2,omitempty"`
	Com3            *string              `json:"com3,omitempty"`
	Com4            *string              `json:"com4,omitempty"`
	Gdb             *string              `json:"gdb,omitempty"`
	Uuid            *uuid.UUID           `json:"uuid,omitempty"`
	Graphic         *GraphicOption       `json:"graphic,omitempty"`
	ExtraOptions    *string              `json:"extra_options,omitempty"`
	Targets         map[string]VmSpecMod `json:"targets,omitempty"`
	NextTarget      *string              `json:"next_target,omitempty"`
	PostStartScript *string              `json:"post_start_script,omitempty"`

	// The seven guest flags are top-level keys on the root document (spec
	// §3), each independently defaulted (matching the original's
	// per-field `#[serde(default = "yes"/"no")]`), not a nested "flags"
	// object.
	UtcClock          *bool `json:"utc_clock,omitempty"`
	YieldOnHlt        *bool `json:"yield_on_hlt,omitempty"`
	GenerateAcpi      *bool `json:"generate_acpi,omitempty"`
	WireGuestMem      *bool `json:"wire_guest_mem,omitempty"`
	ForceMsi          *bool `json:"force_msi,omitempty"`
	DisableMptableGen *bool `json:"disable_mptable_gen,omitempty"`
	PowerOffDestroyVm *bool `json:"power_off_destroy_vm,omitempty"`
}

// boolOr returns *p if p is non-nil, else def.
func boolOr(p *bool, def bool) bool {
	if p != nil {
		return *p
	}
	return def
}

// UnmarshalJSON decodes the root declarative document, defaulting
// hostbridge brand, boot firmware, and guest flags per spec §3.
func (spec *VmSpec) UnmarshalJSON(data []byte) error {
	var raw rawVmSpec
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decoding vm spec")
	}

	brand := DefaultHostbridgeBrand
	if raw.Hostbridge != nil {
		brand = *raw.Hostbridge
	}

	bootopt := raw.BootOpt
	if bootopt == nil {
		d := DefaultBootOptions()
		bootopt = &d
	}

	def := DefaultFlags()
	flags := Flags{
		UtcClock:          boolOr(raw.UtcClock, def.UtcClock),
		YieldOnHlt:        boolOr(raw.YieldOnHlt, def.YieldOnHlt),
		GenerateAcpi:      boolOr(raw.GenerateAcpi, def.GenerateAcpi),
		WireGuestMem:      boolOr(raw.WireGuestMem, def.WireGuestMem),
		ForceMsi:          boolOr(raw.ForceMsi, def.ForceMsi),
		DisableMptableGen: boolOr(raw.DisableMptableGen, def.DisableMptableGen),
		PowerOffDestroyVm: boolOr(raw.PowerOffDestroyVm, def.PowerOffDestroyVm),
	}

	*spec = VmSpec{
		Cpu:             raw.Cpu,
		Mem:             raw.Mem,
		BootOpt:         bootopt,
		Emulations:      raw.Emulations,
		Name:            raw.Name,
		HostbridgeBrand: brand,
		LpcSlot:         raw.LpcSlot,
		Com1:            raw.Com1,
		Com2:            raw.Com2,
		Com3:            raw.Com3,
		Com4:            raw.Com4,
		Gdb:             raw.Gdb,
		Uuid:            raw.Uuid,
		Graphic:         raw.Graphic,
		Flags:           flags,
		ExtraOptions:    raw.ExtraOptions,
		Targets:         raw.Targets,
		NextTarget:      raw.NextTarget,
		PostStartScript: raw.PostStartScript,
	}
	return nil
}

type rawVmSpecMod struct {
	Cpu             *CpuSpec       `json:"cpu,omitempty"`
	Mem             *MemorySpec    `json:"mem,omitempty"`
	BootOpt         *BootOptions   `json:"bootopt,omitempty"`
	Emulations      []Emulation    `json:"emulations,omitempty"`
	Name            *string        `json:"name,omitempty"`
	Hostbridge      *string        `json:"hostbridge,omitempty"`
	LpcSlot         *pciaddr.Slot  `json:"lpc_slot,omitempty"`
	Com1            *string        `json:"com1,omitempty"`
	Com2            *string        `json:"com2,omitempty"`
	Com3            *string        `json:"com3,omitempty"`
	Com4            *string        `json:"com4,omitempty"`
	Gdb             *string        `json:"gdb,omitempty"`
	Uuid            *uuid.UUID     `json:"uuid,omitempty"`
	Graphic         *GraphicOption `json:"graphic,omitempty"`
	ExtraOptions    *string        `json:"extra_options,omitempty"`
	NextTarget      *string        `json:"next_target,omitempty"`
	PostStartScript *string        `json:"post_start_script,omitempty"`

	// Each flag is independently optional, like the root document's.
	UtcClock          *bool `json:"utc_clock,omitempty"`
	YieldOnHlt        *bool `json:"yield_on_hlt,omitempty"`
	GenerateAcpi      *bool `json:"generate_acpi,omitempty"`
	WireGuestMem      *bool `json:"wire_guest_mem,omitempty"`
	ForceMsi          *bool `json:"force_msi,omitempty"`
	DisableMptableGen *bool `json:"disable_mptable_gen,omitempty"`
	PowerOffDestroyVm *bool `json:"power_off_destroy_vm,omitempty"`
}

// UnmarshalJSON decodes an overlay entry from the "targets" map. Unlike the
// root document, no field gets a default here: absence means "leave
// current_spec's field untouched" (Consume's replace-if-present rule).
func (mod *VmSpecMod) UnmarshalJSON(data []byte) error {
	var raw rawVmSpecMod
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decoding vm spec overlay")
	}
	*mod = VmSpecMod{
		Cpu:             raw.Cpu,
		Mem:             raw.Mem,
		BootOpt:         raw.BootOpt,
		Emulations:      raw.Emulations,
		Name:            raw.Name,
		HostbridgeBrand: raw.Hostbridge,
		LpcSlot:         raw.LpcSlot,
		Com1:            raw.Com1,
		Com2:            raw.Com2,
		Com3:            raw.Com3,
		Com4:            raw.Com4,
		Gdb:             raw.Gdb,
		Uuid:            raw.Uuid,
		Graphic:         raw.Graphic,
		Flags: FlagsMod{
			UtcClock:          raw.UtcClock,
			YieldOnHlt:        raw.YieldOnHlt,
			GenerateAcpi:      raw.GenerateAcpi,
			WireGuestMem:      raw.WireGuestMem,
			ForceMsi:          raw.ForceMsi,
			DisableMptableGen: raw.DisableMptableGen,
			PowerOffDestroyVm: raw.PowerOffDestroyVm,
		},
		ExtraOptions:    raw.ExtraOptions,
		NextTarget:      raw.NextTarget,
		PostStartScript: raw.PostStartScript,
	}
	return nil
}
