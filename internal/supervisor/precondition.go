package supervisor

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/project-machine/bhyverun/internal/vmrun"
)

// ErrPreconditionFailure is returned when the post-recovery precondition
// tree still contains a fatal (non-recoverable) assertion.
var ErrPreconditionFailure = errors.New("precondition failure")

// runPreconditions implements spec §4.4.2: per-emulation recovery first
// (gated by fix/force/interactive consent), then a full re-check of
// run.Preconditions(). Skipped entirely when opts.NoRequirementCheck.
func runPreconditions(run *vmrun.VmRun, opts Options, out io.Writer, in io.Reader) error {
	if opts.NoRequirementCheck {
		log.Debug("requirement check skipped (--no-requirement-check)")
		return nil
	}

	for _, d := range run.Devices {
		a, ok := d.Variant.Preconditions().Check()
		if ok || !a.IsRecoverable() {
			continue
		}

		consent := d.WantFix || opts.Force
		if !consent {
			consent = askYesNo(out, in, a.RecoveryPrompt())
		}
		if !consent {
			continue
		}

		log.WithField("slot", d.Slot.String()).Info("repairing recoverable precondition")
		if err := a.Recover(); err != nil {
			return errors.Wrapf(err, "repairing precondition for device at %s", d.Slot.String())
		}
	}

	a, ok := run.Preconditions().Check()
	if ok {
		log.Debug("all preconditions satisfied")
		return nil
	}

	if !a.IsRecoverable() {
		fmt.Fprintln(out, a.Print("vm"))
		return errors.Wrap(ErrPreconditionFailure, "unrecoverable assertion remains after repair")
	}

	// Recoverable but not (fully) recovered: the run proceeds, the tree is
	// still surfaced for the operator.
	fmt.Fprintln(out, a.Print("vm"))
	return nil
}
