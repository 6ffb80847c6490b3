// Package hostprobe wraps the external, side-effect-bearing collaborators
// spec §6 calls out by name: ifconfig, pciconf, devctl, and the kernel
// module registry. None of this package's state is cached — every call
// shells out fresh, matching the teacher's own LaunchCustomQemu pattern of
// a thin os/exec wrapper around a real binary rather than re-implementing
// protocol parsing in-process.
package hostprobe

import (
	"bytes"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// TapIfaces lists the tap interfaces currently known to the host, via
// `ifconfig -g tap`.
func TapIfaces() ([]string, error) {
	out, err := exec.Command("ifconfig", "-g", "tap").Output()
	if err != nil {
		return nil, errors.Wrap(err, "cannot spawn ifconfig -g tap")
	}

	var ifaces []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			ifaces = append(ifaces, line)
		}
	}
	return ifaces, nil
}

// IsTapOpened reports whether the named tap interface is already opened by
// another process. This is a naive textual check against `ifconfig <name>`
// output and, like the original, will also report true for any interface
// whose description happens to contain the string "Opened by PID" — it is
// not meant to be authoritative for non-tap interfaces.
func IsTapOpened(name string) (bool, error) {
	out, err := exec.Command("ifconfig", name).Output()
	if err != nil {
		return false, errors.Wrapf(err, "cannot spawn ifconfig %s", name)
	}
	return strings.Contains(string(out), "Opened by PID"), nil
}

// CreateTap creates a new tap interface with the given name via
// `ifconfig tap create name <name>`. This is the repair action behind
// NetworkBackendAvailable and, per spec §9's Open Question, the interface
// it creates is never released by the supervisor's ephemeral cleanup pass.
func CreateTap(name string) error {
	cmd := exec.Command("ifconfig", "tap", "create", "name", name)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "ifconfig tap create name %s: %s", name, stderr.String())
	}
	return nil
}
