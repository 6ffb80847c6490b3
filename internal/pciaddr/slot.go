// Package pciaddr implements the virtual PCI slot addressing scheme used
// throughout the machine description: a lexicographically ordered
// (bus, slot, func) triple, parsed from the "b:s:f" family of config
// strings and rendered into the two wire notations bhyve expects (":" for
// -s arguments, "/" for passthru host selectors).
package pciaddr

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Slot is a virtual PCI address. Slot must be <= 31 and Func <= 7 to be a
// valid bhyve vPCI placement; PciSlot itself does not enforce that bound so
// it can also represent host-side selectors (pciconf/devctl) which are not
// so constrained.
type Slot struct {
	Bus  uint8
	Slot uint8
	Func uint8
}

// ErrInvalidPciSlotRepr is returned when a "b:s:f" style string cannot be
// parsed into a Slot.
var ErrInvalidPciSlotRepr = errors.New("invalid pci slot representation")

// Parse accepts "s", "s:f", or "b:s:f"; components left out default to 0
// (bus 0 for "s" and "s:f", func 0 for "s").
func Parse(s string) (Slot, error) {
	parts := strings.Split(s, ":")
	var nums [3]uint64
	var err error

	switch len(parts) {
	case 1:
		nums[1], err = strconv.ParseUint(parts[0], 10, 8)
	case 2:
		nums[1], err = strconv.ParseUint(parts[0], 10, 8)
		if err == nil {
			nums[2], err = strconv.ParseUint(parts[1], 10, 8)
		}
	case 3:
		nums[0], err = strconv.ParseUint(parts[0], 10, 8)
		if err == nil {
			nums[1], err = strconv.ParseUint(parts[1], 10, 8)
		}
		if err == nil {
			nums[2], err = strconv.ParseUint(parts[2], 10, 8)
		}
	default:
		return Slot{}, errors.Wrapf(ErrInvalidPciSlotRepr, "got %q", s)
	}

	if err != nil {
		return Slot{}, errors.Wrapf(ErrInvalidPciSlotRepr, "got %q", s)
	}

	return Slot{Bus: uint8(nums[0]), Slot: uint8(nums[1]), Func: uint8(nums[2])}, nil
}

// ParsePassthru accepts the "b/s/f" form that AsPassthruArg renders,
// otherwise identical to Parse. Passthru "src" declarations decode through
// UnmarshalJSON (and so Parse's ":" form), not through this function.
func ParsePassthru(s string) (Slot, error) {
	return Parse(strings.ReplaceAll(s, "/", ":"))
}

// Less implements the total (bus, slot, func) lexicographic order.
func (s Slot) Less(o Slot) bool {
	if s.Bus != o.Bus {
		return s.Bus < o.Bus
	}
	if s.Slot != o.Slot {
		return s.Slot < o.Slot
	}
	return s.Func < o.Func
}

// Equal reports whether the two slots address the same triple.
func (s Slot) Equal(o Slot) bool {
	return s.Bus == o.Bus && s.Slot == o.Slot && s.Func == o.Func
}

// Valid reports whether s satisfies bhyve's vPCI bound of slot<=31, func<=7.
// It does not check bus, which bhyve does not bound.
func (s Slot) Valid() bool {
	return s.Slot <= 31 && s.Func <= 7
}

// String renders the bhyve "-s" argument prefix, "bus:slot:func".
func (s Slot) String() string {
	return strconv.Itoa(int(s.Bus)) + ":" + strconv.Itoa(int(s.Slot)) + ":" + strconv.Itoa(int(s.Func))
}

// AsPassthruArg renders the "bus/slot/func" form bhyve's passthru device
// expects.
func (s Slot) AsPassthruArg() string {
	return strconv.Itoa(int(s.Bus)) + "/" + strconv.Itoa(int(s.Slot)) + "/" + strconv.Itoa(int(s.Func))
}

// UnmarshalJSON accepts either a JSON string in "b:s:f" notation or a JSON
// object {"bus":,"slot":,"func":}, matching how the teacher's own config
// types (e.g. Memory, SMP) accept both a compact and a structured form.
func (s *Slot) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		parsed, err := Parse(str)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}

	var obj struct {
		Bus  uint8 `json:"bus"`
		Slot uint8 `json:"slot"`
		Func uint8 `json:"func"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.Wrap(ErrInvalidPciSlotRepr, err.Error())
	}
	*s = Slot{Bus: obj.Bus, Slot: obj.Slot, Func: obj.Func}
	return nil
}

// MarshalYAML renders the same compact "b:s:f" form for --debug dumps.
func (s Slot) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}
