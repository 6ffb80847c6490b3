package machinespec

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MemorySpec holds the guest memory size in kilobytes.
type MemorySpec struct {
	KB uint64
}

// ErrInvalidUnit is returned when a memory size string carries an
// unrecognized unit suffix.
var ErrInvalidUnit = errors.New("invalid storage unit")

// ErrInvalidValue is returned when the numeric portion of a memory size
// string cannot be parsed.
var ErrInvalidValue = errors.New("invalid numeric value")

// takeNumeric consumes a leading numeric literal from input, honoring
// "0x"/"0b"/"0"-octal radix prefixes, and returns the parsed value and the
// remaining (unit) suffix. It mirrors the original's take_numeric: the
// radix is sniffed from the first one or two characters, then digits in
// that radix are consumed greedily.
func takeNumeric(input string) (uint64, string, error) {
	radix := 10
	start := 0

	if len(input) >= 2 && input[0] == '0' {
		switch input[1] {
		case 'x', 'X':
			radix, start = 16, 2
		case 'b', 'B':
			radix, start = 2, 2
		default:
			if input[1] >= '0' && input[1] <= '7' {
				radix, start = 8, 1
			}
		}
	}

	end := start
	for end < len(input) && digitInRadix(input[end], radix) {
		end++
	}

	if end == start {
		// no digits beyond the radix prefix; treat the bare "0" as valid.
		if start > 0 {
			end = 1
			start = 0
		} else {
			return 0, "", errors.Wrapf(ErrInvalidValue, "no digits in %q", input)
		}
	}

	value, err := strconv.ParseUint(input[start:end], radix, 64)
	if err != nil {
		return 0, "", errors.Wrapf(ErrInvalidValue, "%q", input)
	}

	return value, input[end:], nil
}

func digitInRadix(c byte, radix int) bool {
	var v int
	switch {
	case c >= '0' && c <= '9':
		v = int(c - '0')
	case c >= 'a' && c <= 'z':
		v = int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		v = int(c-'A') + 10
	default:
		return false
	}
	return v < radix
}

// ParseMemKB parses a memory size string using the unit table in spec §3:
// K/M/G/T, case-insensitive, with an optional trailing "b", binary
// multipliers (1K=1, 1M=1024, 1G=1024^2, 1T=1024^3 kb).
func ParseMemKB(input string) (uint64, error) {
	value, rest, err := takeNumeric(input)
	if err != nil {
		return 0, err
	}

	unit := strings.ToUpper(rest)
	unit = strings.TrimSuffix(unit, "B")

	var multiplier uint64
	switch unit {
	case "K":
		multiplier = 1
	case "M":
		multiplier = 1024
	case "G":
		multiplier = 1024 * 1024
	case "T":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, errors.Wrapf(ErrInvalidUnit, "%q", rest)
	}

	return value * multiplier, nil
}

// UnmarshalJSON accepts a bare integer (interpreted as bytes, divided by
// 1000 per spec §9's open question) or a unit-suffixed string.
func (m *MemorySpec) UnmarshalJSON(data []byte) error {
	var n uint64
	if err := json.Unmarshal(data, &n); err == nil {
		m.KB = n / 1000
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "decoding mem spec")
	}

	kb, err := ParseMemKB(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	m.KB = kb
	return nil
}
