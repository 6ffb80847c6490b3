package supervisor

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// openPidFile opens path for writing a pid: an existing regular,
// write-accessible file is opened without truncation (so a later write
// overlays rather than resets), a missing path is created. Anything else
// (exists but not a regular file, or not writable) is a precondition
// failure (spec §5).
func openPidFile(path string) (*os.File, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, errors.Wrapf(err, "creating pid file %q", path)
		}
		return f, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "statting pid file %q", path)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Wrapf(ErrPreconditionFailure, "pid file %q is not a regular file", path)
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(ErrPreconditionFailure, "pid file %q is not writable: %v", path, err)
	}
	return f, nil
}

// writePid truncates f to the new pid's text representation. Truncation
// happens here, at write time, not at open time, matching "opened without
// truncation" in spec §5.
func writePid(f *os.File, pid int) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err := fmt.Fprintf(f, "%d\n", pid)
	return err
}
