package hostprobe

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// EntityState reports what kind of object (if anything) is reachable at
// path, via unix.Stat — the same "ask the kernel directly" idiom snapd and
// kata-containers use throughout their host-facing introspection, rather
// than relying on the portable-but-less-precise os.Stat indirection alone.
type EntityState struct {
	Exists      bool
	IsRegular   bool
	IsDirectory bool
}

// Stat reports the entity state at path. A missing path or an
// inaccessible one are both reported as Exists=false; the caller does not
// need to distinguish ENOENT from EACCES for precondition purposes.
func Stat(path string) (EntityState, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.EACCES) || errors.Is(err, unix.ENOTDIR) {
			return EntityState{}, nil
		}
		return EntityState{}, errors.Wrapf(err, "stat %s", path)
	}

	return EntityState{
		Exists:      true,
		IsRegular:   st.Mode&unix.S_IFMT == unix.S_IFREG,
		IsDirectory: st.Mode&unix.S_IFMT == unix.S_IFDIR,
	}, nil
}
