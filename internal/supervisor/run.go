package supervisor

import (
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/project-machine/bhyverun/internal/vmrun"
)

// hyveExec is the hypervisor binary name. It defaults to "bhyve"; a
// non-empty BHYVE_EXEC environment variable, read once at process start,
// replaces it.
var hyveExec = "bhyve"

func init() {
	if v := os.Getenv("BHYVE_EXEC"); v != "" {
		hyveExec = v
	}
}

// FailureExitCode is returned for any I/O/precondition/setup failure
// before or during spawn (spec §6).
const FailureExitCode = 4

// Run drives the reboot/target loop (spec §4.5) to completion and returns
// the process exit code to propagate.
func Run(opts Options) int {
	root, err := ReadConfig(opts.Config)
	if err != nil {
		log.WithError(err).Error("reading config")
		return FailureExitCode
	}

	rebootOn, err := parseRebootOn(opts.RebootOn)
	if err != nil {
		log.WithError(err).Error("parsing --reboot-on")
		return FailureExitCode
	}

	currentSpec := root.Clone()
	rebootCount := 0
	var nextTarget *string
	if opts.Target != "" {
		t := opts.Target
		nextTarget = &t
	}

	for {
		if nextTarget != nil {
			if *nextTarget == "default" {
				if _, ok := currentSpec.Targets["default"]; !ok {
					currentSpec = root.Clone()
				} else if err := currentSpec.ConsumeTarget("default"); err != nil {
					log.WithError(err).Error("applying default target")
					return FailureExitCode
				}
			} else if err := currentSpec.ConsumeTarget(*nextTarget); err != nil {
				log.WithError(err).WithField("target", *nextTarget).Error("applying target")
				return FailureExitCode
			}
			log.WithField("target", *nextTarget).Info("applied target")
		}
		nextTarget = currentSpec.NextTarget

		run, err := vmrun.Build(currentSpec, opts.ExtraArgs())
		if err != nil {
			log.WithError(err).Error("compiling vm spec")
			return FailureExitCode
		}

		code, done, err := runSession(run, opts)
		if err != nil {
			log.WithError(err).Error("vm session failed")
			return FailureExitCode
		}
		if done {
			return code
		}

		rebootEligible := !opts.NoReboot &&
			(opts.rebootUnbounded() || rebootCount < opts.RebootCount) &&
			containsInt(rebootOn, code)
		if !rebootEligible {
			return code
		}
		rebootCount++
		log.WithField("reboot_count", rebootCount).WithField("exit_code", code).Info("rebooting")
	}
}

// runSession compiles one iteration's argv, runs the precondition
// pipeline, and (unless dry-run/debug) spawns and waits for the
// hypervisor, returning its exit code. done is true when the loop should
// stop unconditionally (dry-run/debug).
func runSession(run *vmrun.VmRun, opts Options) (code int, done bool, err error) {
	if err := runPreconditions(run, opts, os.Stderr, os.Stdin); err != nil {
		return 0, false, err
	}

	argv := run.BhyveArgs()

	if opts.Debug {
		if dErr := dumpYAML(os.Stderr, run); dErr != nil {
			log.WithError(dErr).Warn("dumping compiled vm run")
		}
	}
	if opts.Debug || opts.DryRun {
		os.Stderr.WriteString(bufferedArgv(hyveExec, argv))
		return 0, true, nil
	}

	devPath := "/dev/vmm/" + run.Name
	if _, statErr := os.Stat(devPath); statErr == nil && opts.Force {
		log.WithField("vm", run.Name).Info("destroying stale vmm device")
		destroy := exec.Command("bhyvectl", "--destroy", "--vm="+run.Name)
		if rErr := destroy.Run(); rErr != nil {
			log.WithError(rErr).Warn("bhyvectl --destroy failed")
		}
	}

	var hypervisorPidFile *os.File
	if opts.HypervisorPidFile != "" {
		hypervisorPidFile, err = openPidFile(opts.HypervisorPidFile)
		if err != nil {
			return 0, false, err
		}
		defer hypervisorPidFile.Close()
	}
	if opts.SupervisorPidFile != "" {
		supervisorPidFile, sErr := openPidFile(opts.SupervisorPidFile)
		if sErr != nil {
			return 0, false, sErr
		}
		defer supervisorPidFile.Close()
		if wErr := writePid(supervisorPidFile, os.Getpid()); wErr != nil {
			return 0, false, errors.Wrap(wErr, "writing supervisor pid")
		}
	}

	cmd := exec.Command(hyveExec, argv...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Start(); err != nil {
		return 0, false, errors.Wrap(err, "spawning hypervisor")
	}
	log.WithField("pid", cmd.Process.Pid).WithField("argv", strings.Join(argv, " ")).Info("hypervisor spawned")

	if hypervisorPidFile != nil {
		if wErr := writePid(hypervisorPidFile, cmd.Process.Pid); wErr != nil {
			return 0, false, errors.Wrap(wErr, "writing hypervisor pid")
		}
	}

	if run.PostStartScript != nil && *run.PostStartScript != "" {
		psArgv := strings.Split(*run.PostStartScript, " ")
		psCmd := exec.Command(psArgv[0], psArgv[1:]...)
		psCmd.Stdin, psCmd.Stdout, psCmd.Stderr = os.Stdin, os.Stdout, os.Stderr
		if sErr := psCmd.Run(); sErr != nil {
			log.WithError(sErr).Warn("post-start script failed")
		}
	}

	waitErr := cmd.Wait()
	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return 0, false, errors.Wrap(waitErr, "waiting for hypervisor")
		}
	}
	log.WithField("exit_code", exitCode).Info("hypervisor exited")

	releaseEphemerals(run, opts)

	return exitCode, false, nil
}

// releaseEphemerals releases every ephemeral resource the run's devices
// created, honoring --panic-on-failed-cleanup (spec §4.5 step 8).
func releaseEphemerals(run *vmrun.VmRun, opts Options) {
	for _, r := range run.EphemeralObjects() {
		if err := r.Release(); err != nil {
			if opts.PanicOnFailedCleanup {
				log.WithError(err).Fatal("failed to release ephemeral resource")
			}
			log.WithError(err).Warn("failed to release ephemeral resource")
		}
	}
}

