package hostprobe

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/project-machine/bhyverun/internal/pciaddr"
)

// PciDevice is one line of `pciconf -l` output, decoded.
type PciDevice struct {
	DeviceName string
	Domain     uint8
	Slot       pciaddr.Slot
	Class      uint32
	Rev        uint8
	HeaderType uint8
	Vendor     uint16
	Subvendor  uint16
	Device     uint16
	Subdevice  uint16
}

// ParsePciconfLine decodes one line of `pciconf -l` output, e.g.:
//
//	ppt0@pci0:114:0:0:	class=0x028000 rev=0x1a hdr=0x00 vendor=0x8086 device=0x2725 subvendor=0x8086 subdevice=0x0024
func ParsePciconfLine(line string) (*PciDevice, error) {
	cols := strings.Fields(line)
	if len(cols) < 6 {
		return nil, errors.New("invalid pciconf -l output")
	}

	name, selector, ok := strings.Cut(cols[0], "@pci")
	if !ok {
		return nil, errors.New("invalid pciconf -l output")
	}

	nums := strings.Split(strings.TrimSuffix(selector, ":"), ":")
	if len(nums) != 4 {
		return nil, errors.New("invalid pciconf -l output")
	}
	var parsed [4]uint64
	for i, n := range nums {
		v, err := strconv.ParseUint(n, 10, 8)
		if err != nil {
			return nil, errors.Wrap(err, "invalid pciconf -l output")
		}
		parsed[i] = v
	}

	dev := &PciDevice{
		DeviceName: name,
		Domain:     uint8(parsed[0]),
		Slot: pciaddr.Slot{
			Bus:  uint8(parsed[1]),
			Slot: uint8(parsed[2]),
			Func: uint8(parsed[3]),
		},
	}

	kv := make(map[string]string)
	for _, c := range cols[1:] {
		k, v, ok := strings.Cut(c, "=")
		if !ok {
			continue
		}
		kv[k] = v
	}

	take := func(key string) (uint64, error) {
		raw, ok := kv[key]
		if !ok || !strings.HasPrefix(raw, "0x") {
			return 0, errors.Errorf("missing key %q", key)
		}
		return strconv.ParseUint(raw[2:], 16, 32)
	}

	if v, err := take("class"); err == nil {
		dev.Class = uint32(v)
	} else {
		return nil, errors.Wrap(err, "invalid pciconf -l output")
	}
	if v, err := take("rev"); err == nil {
		dev.Rev = uint8(v)
	} else {
		return nil, errors.Wrap(err, "invalid pciconf -l output")
	}
	if v, err := take("hdr"); err == nil {
		dev.HeaderType = uint8(v)
	} else {
		return nil, errors.Wrap(err, "invalid pciconf -l output")
	}
	if v, err := take("vendor"); err == nil {
		dev.Vendor = uint16(v)
	} else {
		return nil, errors.Wrap(err, "invalid pciconf -l output")
	}
	if v, err := take("device"); err == nil {
		dev.Device = uint16(v)
	} else {
		return nil, errors.Wrap(err, "invalid pciconf -l output")
	}
	if v, err := take("subvendor"); err == nil {
		dev.Subvendor = uint16(v)
	} else {
		return nil, errors.Wrap(err, "invalid pciconf -l output")
	}
	if v, err := take("subdevice"); err == nil {
		dev.Subdevice = uint16(v)
	} else {
		return nil, errors.Wrap(err, "invalid pciconf -l output")
	}

	return dev, nil
}

// ListPciDevices runs `pciconf -l` with no selector and decodes every line,
// used by the passthru vendor/device lookup path.
func ListPciDevices() ([]*PciDevice, error) {
	out, err := exec.Command("pciconf", "-l").Output()
	if err != nil {
		return nil, errors.Wrap(err, "cannot spawn pciconf -l")
	}

	var devices []*PciDevice
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		dev, err := ParsePciconfLine(line)
		if err != nil {
			continue
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

// PciDeviceAt runs `pciconf -l pci0:<bus>:<slot>:<func>` and decodes the
// single resulting line, or returns (nil, nil) if the selector matched
// nothing.
func PciDeviceAt(slot pciaddr.Slot) (*PciDevice, error) {
	selector := fmt.Sprintf("pci0:%d:%d:%d", slot.Bus, slot.Slot, slot.Func)
	out, err := exec.Command("pciconf", "-l", selector).Output()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot spawn pciconf -l %s", selector)
	}
	line := strings.TrimSpace(string(out))
	if line == "" {
		return nil, nil
	}
	return ParsePciconfLine(line)
}

// IsPptBound reports whether the given pciconf device name is already
// driven by the ppt(4) passthru driver.
func IsPptBound(deviceName string) bool {
	return strings.HasPrefix(deviceName, "ppt")
}

// ForcePassthru detaches the device currently bound at slot (unless the
// selector is driverless, i.e. named "none...") and rebinds it to ppt(4),
// via `devctl detach` / `devctl set driver ... ppt`.
func ForcePassthru(slot pciaddr.Slot) error {
	selector := fmt.Sprintf("pci0:%d:%d:%d", slot.Bus, slot.Slot, slot.Func)

	dev, err := PciDeviceAt(slot)
	if err != nil {
		return err
	}
	if dev == nil {
		return errors.Errorf("no pci device at %s", selector)
	}

	if !strings.HasPrefix(dev.DeviceName, "none") {
		if err := exec.Command("devctl", "detach", selector).Run(); err != nil {
			return errors.Wrapf(err, "devctl detach %s", selector)
		}
	}

	if err := exec.Command("devctl", "set", "driver", selector, "ppt").Run(); err != nil {
		return errors.Wrapf(err, "devctl set driver %s ppt", selector)
	}

	return nil
}
