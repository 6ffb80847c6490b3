// Package supervisor implements the reboot/target loop, the precondition
// recovery pipeline, and the hypervisor subprocess lifecycle: the pieces
// that sit above a compiled vmrun.VmRun.
package supervisor

// Options is the CLI contract (spec §6), decoded by the caller with
// github.com/jessevdk/go-flags. ExtraArgs captures everything after a
// trailing "--", appended verbatim to the hypervisor invocation.
type Options struct {
	Target string `short:"t" long:"target" description:"initial target to apply over the root document"`
	Config string `short:"c" long:"config" required:"true" description:"JSON machine spec file, or - for stdin"`

	NoReboot bool `long:"no-reboot" description:"suppress all reboot iterations"`
	Force    bool `short:"f" long:"force" description:"destroy /dev/vmm/<name> before launch; auto-accept recoverable preconditions"`
	Recover  bool `long:"recover" description:"reserved; no behavioral effect"`
	DryRun   bool `long:"dry-run" description:"print the invocation and exit 0"`

	RebootCount int    `long:"reboot-count" default:"-1" description:"maximum number of reboots; unbounded when negative"`
	RebootOn    string `long:"reboot-on" default:"0" description:"comma-separated exit codes that trigger a reboot"`

	HypervisorPidFile string `short:"p" description:"write the hypervisor pid here"`
	SupervisorPidFile string `short:"P" description:"write the supervisor pid here"`

	PanicOnFailedCleanup bool `long:"panic-on-failed-cleanup" description:"abort if an ephemeral resource fails to release"`
	NoRequirementCheck   bool `long:"no-requirement-check" description:"skip the entire precondition stage"`
	Debug                bool `long:"debug" description:"dump the compiled VmRun (as YAML) and argv to stderr, then exit 0"`

	Positional struct {
		ExtraArgs []string `positional-arg-name:"args" description:"appended verbatim to the hypervisor invocation"`
	} `positional-args:"yes"`
}

// ExtraArgs is the flattened view callers use; go-flags requires the
// trailing positional list to live in its own nested struct.
func (o Options) ExtraArgs() []string { return o.Positional.ExtraArgs }

// rebootUnbounded reports whether RebootCount leaves the loop unbounded.
func (o Options) rebootUnbounded() bool {
	return o.RebootCount < 0
}
