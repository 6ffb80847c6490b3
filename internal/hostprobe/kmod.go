package hostprobe

import (
	"os/exec"

	"github.com/pkg/errors"
)

// KldLoaded reports whether the named kernel module is loaded, via
// `kldstat -q -m <name>`. The original links against libc's kldfind(3)
// directly; this module stays off cgo and reaches the same kernel module
// registry through the kldstat(8) front-end instead, consistent with the
// rest of this package treating host introspection as subprocess calls.
func KldLoaded(name string) (bool, error) {
	err := exec.Command("kldstat", "-q", "-m", name).Run()
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, errors.Wrapf(err, "cannot spawn kldstat -q -m %s", name)
}
