package machinespec

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/project-machine/bhyverun/internal/device"
	"github.com/project-machine/bhyverun/internal/pciaddr"
)

// ErrUnknownDevice is returned when an emulation entry's "device" tag does
// not name a member of the closed device set.
var ErrUnknownDevice = errors.New("unknown device variant")

// ErrIncorrectEmulation is returned when an emulation entry's fields do not
// satisfy its device tag's shape (e.g. nvme with neither ram nor path).
var ErrIncorrectEmulation = errors.New("incorrect emulation declaration")

type rawPciLookup struct {
	Vendor string `json:"vendor"`
	Device string `json:"device"`
}

type rawEmulation struct {
	Slot *pciaddr.Slot `json:"slot,omitempty"`
	Fix  bool          `json:"fix"`

	Dev string `json:"device"`

	// virtio-console
	Ports []string `json:"ports,omitempty"`

	// virtio-net
	Name string  `json:"name,omitempty"`
	Type *string `json:"type,omitempty"`
	Mtu  *uint32 `json:"mtu,omitempty"`
	Mac  *string `json:"mac,omitempty"`

	// virtio-blk / ahci-hd / ahci-cd / nvme common
	Path *string `json:"path,omitempty"`

	// virtio-blk
	Nocache            bool    `json:"nocache"`
	Direct             bool    `json:"direct"`
	Ro                 bool    `json:"ro"`
	Nodelete           bool    `json:"nodelete"`
	LogicalSectorSize  *uint32 `json:"logical_sector_size,omitempty"`
	PhysicalSectorSize *uint32 `json:"physical_sector_size,omitempty"`

	// ahci-hd / ahci-cd
	Nmrr  *uint32 `json:"nmrr,omitempty"`
	Ser   *string `json:"ser,omitempty"`
	Rev   *string `json:"rev,omitempty"`
	Model *string `json:"model,omitempty"`

	// passthru
	Src    *pciaddr.Slot `json:"src,omitempty"`
	Lookup *rawPciLookup `json:"lookup,omitempty"`
	Rom    *string       `json:"rom,omitempty"`

	// nvme
	Ram     *uint64 `json:"ram,omitempty"`
	Qsz     *uint32 `json:"qsz,omitempty"`
	Ioslots *uint32 `json:"ioslots,omitempty"`
	Sectsz  *uint32 `json:"sectsz,omitempty"`
	Eui64   *uint32 `json:"eui64,omitempty"`
	Dsm     *string `json:"dsm,omitempty"`

	// raw
	Value *string `json:"value,omitempty"`
}

func (r rawEmulation) toDevice() (device.Device, error) {
	switch r.Dev {
	case "virtio-console":
		return device.VirtioConsole{Ports: r.Ports}, nil

	case "virtio-net":
		backend, err := resolveNetBackend(r.Name, r.Type)
		if err != nil {
			return nil, err
		}
		return device.VirtioNet{Backend: string(backend), Name: r.Name, Mtu: r.Mtu, Mac: r.Mac}, nil

	case "virtio-blk":
		if r.Path == nil {
			return nil, errors.Wrap(ErrIncorrectEmulation, "virtio-blk requires path")
		}
		return device.VirtioBlk{
			Path:               *r.Path,
			Nocache:            r.Nocache,
			Direct:             r.Direct,
			Ro:                 r.Ro,
			Nodelete:           r.Nodelete,
			LogicalSectorSize:  r.LogicalSectorSize,
			PhysicalSectorSize: r.PhysicalSectorSize,
		}, nil

	case "ahci-hd":
		if r.Path == nil {
			return nil, errors.Wrap(ErrIncorrectEmulation, "ahci-hd requires path")
		}
		return device.AhciHd{AhciFrontend: device.AhciFrontend{
			Path: *r.Path, Nmrr: r.Nmrr, Ser: r.Ser, Rev: r.Rev, Model: r.Model,
		}}, nil

	case "ahci-cd":
		if r.Path == nil {
			return nil, errors.Wrap(ErrIncorrectEmulation, "ahci-cd requires path")
		}
		return device.AhciCd{AhciFrontend: device.AhciFrontend{
			Path: *r.Path, Nmrr: r.Nmrr, Ser: r.Ser, Rev: r.Rev, Model: r.Model,
		}}, nil

	case "passthru":
		var vendor, dev *string
		if r.Lookup != nil {
			vendor, dev = &r.Lookup.Vendor, &r.Lookup.Device
		}
		return device.ResolvePciPassthru(r.Src, vendor, dev, r.Rom)

	case "nvme":
		if r.Path == nil && r.Ram == nil {
			return nil, errors.Wrap(ErrIncorrectEmulation, "nvme requires either ram or path")
		}
		return device.Nvme{
			Path: r.Path, Ram: r.Ram, Qsz: r.Qsz, Ioslots: r.Ioslots,
			Sectsz: r.Sectsz, Ser: r.Ser, Eui64: r.Eui64, Dsm: r.Dsm,
		}, nil

	case "raw":
		if r.Value == nil {
			return nil, errors.Wrap(ErrIncorrectEmulation, "raw requires value")
		}
		return device.Raw{Arg: *r.Value}, nil

	default:
		return nil, errors.Wrapf(ErrUnknownDevice, "%q", r.Dev)
	}
}

func resolveNetBackend(name string, explicit *string) (NetBackend, error) {
	if explicit != nil {
		if b, ok := ParseNetBackend(*explicit); ok {
			return b, nil
		}
		return "", errors.Wrapf(ErrIncorrectEmulation, "unknown virtio-net backend type %q", *explicit)
	}
	if b, ok := InferNetBackend(name); ok {
		return b, nil
	}
	return "", errors.Wrapf(ErrIncorrectEmulation, "cannot infer virtio-net backend from name %q", name)
}

// UnmarshalJSON decodes one emulations[] entry: the optional slot and fix
// bit, then dispatches the remaining fields per the "device" tag to a
// concrete device.Device.
func (e *Emulation) UnmarshalJSON(data []byte) error {
	var raw rawEmulation
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decoding emulation")
	}
	dev, err := raw.toDevice()
	if err != nil {
		return err
	}
	e.Slot = raw.Slot
	e.Fix = raw.Fix
	e.Device = dev
	return nil
}
