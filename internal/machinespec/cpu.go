package machinespec

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// CpuSpec is the guest CPU topology. It decodes from either a bare integer
// (meaning {1, 1, n} — one socket, one core, n threads) or a
// {"sockets":,"cores":,"threads":} object.
type CpuSpec struct {
	Sockets uint
	Cores   uint
	Threads uint
}

// UnmarshalJSON implements the dual integer/object decode spec.md §3
// describes for CpuSpec.
func (c *CpuSpec) UnmarshalJSON(data []byte) error {
	var n uint
	if err := json.Unmarshal(data, &n); err == nil {
		*c = CpuSpec{Sockets: 1, Cores: 1, Threads: n}
		return nil
	}

	var obj struct {
		Sockets uint `json:"sockets"`
		Cores   uint `json:"cores"`
		Threads uint `json:"threads"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.Wrap(err, "decoding cpu spec")
	}
	*c = CpuSpec(obj)
	return nil
}

// ToBhyveArg renders the `-c` argument: just the thread count when
// sockets==cores==1, else the full "sockets=,threads=,cores=" form.
func (c CpuSpec) ToBhyveArg() string {
	if c.Sockets == 1 && c.Cores == 1 {
		return fmt.Sprintf("%d", c.Threads)
	}
	return fmt.Sprintf("sockets=%d,threads=%d,cores=%d", c.Sockets, c.Threads, c.Cores)
}
