package machinespec

// DefaultBootrom is the firmware path used when a VmSpec does not declare
// one explicitly.
const DefaultBootrom = "/usr/local/share/uefi-firmware/BHYVE_UEFI.fd"

// BootOptions describes the guest boot firmware. UEFI is the only variant
// today; spec §3 models this as a sum type to leave room for others.
type BootOptions struct {
	Bootrom string  `json:"bootrom"`
	Varfile *string `json:"varfile,omitempty"`
}

// DefaultBootOptions returns the UEFI default used when a VmSpec omits
// bootopt entirely.
func DefaultBootOptions() BootOptions {
	return BootOptions{Bootrom: DefaultBootrom}
}
