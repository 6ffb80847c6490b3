package supervisor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// withFakeHypervisor points hyveExec at a script that appends one line to
// countFile and exits 0 on every invocation, restoring the real value on
// cleanup.
func withFakeHypervisor(t *testing.T, countFile string) {
	t.Helper()
	script := filepath.Join(t.TempDir(), "fake-bhyve.sh")
	content := "#!/bin/sh\necho invoked >> " + countFile + "\nexit 0\n"
	require.NoError(t, os.WriteFile(script, []byte(content), 0755))

	old := hyveExec
	hyveExec = script
	t.Cleanup(func() { hyveExec = old })
}

func writeMinimalConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vm.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"t","cpu":1,"mem":"1G"}`), 0644))
	return path
}

func countInvocations(t *testing.T, countFile string) int {
	t.Helper()
	content, err := os.ReadFile(countFile)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return 0
	}
	return len(lines)
}

// TestRunBoundedRebootStopsAtCount covers S6: --reboot-count bounds the
// number of reboots, not the number of hypervisor invocations — RebootCount
// reboots means RebootCount+1 total runs.
func TestRunBoundedRebootStopsAtCount(t *testing.T) {
	countFile := filepath.Join(t.TempDir(), "count")
	withFakeHypervisor(t, countFile)

	opts := Options{
		Config:             writeMinimalConfig(t),
		RebootOn:           "0",
		RebootCount:        2,
		NoRequirementCheck: true,
	}

	code := Run(opts)
	require.Equal(t, 0, code)
	require.Equal(t, 3, countInvocations(t, countFile), "want initial run plus 2 reboots")
}

// TestRunNoRebootStopsImmediately covers S3/S6's --no-reboot override:
// regardless of --reboot-on matching the exit code, the loop must not
// iterate past the first hypervisor invocation.
func TestRunNoRebootStopsImmediately(t *testing.T) {
	countFile := filepath.Join(t.TempDir(), "count")
	withFakeHypervisor(t, countFile)

	opts := Options{
		Config:             writeMinimalConfig(t),
		RebootOn:           "0",
		RebootCount:        5,
		NoReboot:           true,
		NoRequirementCheck: true,
	}

	code := Run(opts)
	require.Equal(t, 0, code)
	require.Equal(t, 1, countInvocations(t, countFile))
}

// TestRunExitCodeNotInRebootOnStopsImmediately covers S3: a reboot only
// happens when the exit code is in the --reboot-on set.
func TestRunExitCodeNotInRebootOnStopsImmediately(t *testing.T) {
	countFile := filepath.Join(t.TempDir(), "count")
	withFakeHypervisor(t, countFile)

	opts := Options{
		Config:             writeMinimalConfig(t),
		RebootOn:           "42",
		RebootCount:        5,
		NoRequirementCheck: true,
	}

	code := Run(opts)
	require.Equal(t, 0, code)
	require.Equal(t, 1, countInvocations(t, countFile))
}

// TestRunZeroRebootCountRunsOnce covers the RebootCount=0 boundary: no
// reboots allowed means exactly one hypervisor invocation even though the
// exit code matches --reboot-on.
func TestRunZeroRebootCountRunsOnce(t *testing.T) {
	countFile := filepath.Join(t.TempDir(), "count")
	withFakeHypervisor(t, countFile)

	opts := Options{
		Config:             writeMinimalConfig(t),
		RebootOn:           "0",
		RebootCount:        0,
		NoRequirementCheck: true,
	}

	code := Run(opts)
	require.Equal(t, 0, code)
	require.Equal(t, 1, countInvocations(t, countFile))
}

func TestRunDryRunNeverSpawnsHypervisor(t *testing.T) {
	countFile := filepath.Join(t.TempDir(), "count")
	withFakeHypervisor(t, countFile)

	opts := Options{
		Config:             writeMinimalConfig(t),
		DryRun:             true,
		NoRequirementCheck: true,
	}

	code := Run(opts)
	require.Equal(t, 0, code)
	require.Equal(t, 0, countInvocations(t, countFile))
}

func TestRunReadConfigFailureReturnsFailureExitCode(t *testing.T) {
	opts := Options{Config: filepath.Join(t.TempDir(), "missing.json")}
	require.Equal(t, FailureExitCode, Run(opts))
}
