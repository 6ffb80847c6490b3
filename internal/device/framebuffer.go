package device

import (
	"fmt"

	"github.com/project-machine/bhyverun/internal/condition"
)

// Framebuffer is a VNC framebuffer emulated PCI device.
type Framebuffer struct {
	Host   *string
	Port   *uint16
	W      *uint32
	H      *uint32
	Wait   bool
	Vga    *string
	Passwd *string
}

// Preconditions asserts W/H are either both unset or both within bhyve's
// supported resolution window.
func (f Framebuffer) Preconditions() condition.Condition {
	return condition.ValidResolution{W: f.W, H: f.H}
}

// EphemeralObjects returns nil.
func (Framebuffer) EphemeralObjects() []Resource { return nil }

// AsHypervisorArg renders
// "fbuf,tcp=<host>:<port>[,w=][,h=][,vga=][,password=][,wait]", defaulting
// host to 0.0.0.0 and port to 5900 when unset.
func (f Framebuffer) AsHypervisorArg() string {
	host := "0.0.0.0"
	if f.Host != nil {
		host = *f.Host
	}
	port := uint16(5900)
	if f.Port != nil {
		port = *f.Port
	}

	base := fmt.Sprintf("fbuf,tcp=%s:%d", host, port)
	if f.W != nil {
		base += fmt.Sprintf(",w=%d", *f.W)
	}
	if f.H != nil {
		base += fmt.Sprintf(",h=%d", *f.H)
	}
	if f.Vga != nil {
		base += ",vga=" + *f.Vga
	}
	if f.Passwd != nil {
		base += ",password=" + *f.Passwd
	}
	if f.Wait {
		base += ",wait"
	}
	return base
}
