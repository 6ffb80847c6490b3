package vmrun

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/project-machine/bhyverun/internal/machinespec"
)

func TestBuildAndBhyveArgsMinimalUefiVm(t *testing.T) {
	var spec machinespec.VmSpec
	raw := `{"name":"t","cpu":1,"mem":"512M","emulations":[
		{"slot":"0:5:0","device":"virtio-blk","path":"/tmp/img"}
	]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &spec))

	run, err := Build(spec, nil)
	require.NoError(t, err)

	got := strings.Join(run.BhyveArgs(), " ")
	want := "-A -H -u -c 1 -m 524288K -s 0:0:0,hostbridge -s 0:31:0,lpc " +
		"-s 0:5:0,virtio-blk,/tmp/img -l bootrom,/usr/local/share/uefi-firmware/BHYVE_UEFI.fd t"
	require.Equal(t, want, got)
}

func TestBuildAssignsHostbridgeAndLpcSlots(t *testing.T) {
	var spec machinespec.VmSpec
	require.NoError(t, json.Unmarshal([]byte(`{"name":"t","cpu":1,"mem":"1G"}`), &spec))

	run, err := Build(spec, nil)
	require.NoError(t, err)

	require.Equal(t, "0:0:0", run.HostbridgeSlot.String())
	require.Equal(t, "0:31:0", run.LpcSlot.String())
	require.Len(t, run.LpcDevices, 1, "want exactly one lpc device (bootrom)")
}

func TestBuildHonorsExplicitLpcSlot(t *testing.T) {
	var spec machinespec.VmSpec
	require.NoError(t, json.Unmarshal([]byte(`{"name":"t","cpu":1,"mem":"1G","lpc_slot":"0:10:0"}`), &spec))

	run, err := Build(spec, nil)
	require.NoError(t, err)
	require.Equal(t, "0:10:0", run.LpcSlot.String())
}

func TestBuildAppendsExtraOptionsAndArgs(t *testing.T) {
	var spec machinespec.VmSpec
	raw := `{"name":"t","cpu":1,"mem":"1G","extra_options":"-v  -x foo"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &spec))

	run, err := Build(spec, []string{"--extra"})
	require.NoError(t, err)

	argv := run.BhyveArgs()
	require.Equal(t, "t", argv[len(argv)-1], "the VM name must trail the argv")
	require.Contains(t, strings.Join(argv, " "), "-v -x foo --extra t")
}

func TestPreconditionsFlagsDuplicateLpcIdentifier(t *testing.T) {
	var spec machinespec.VmSpec
	raw := `{"name":"t","cpu":1,"mem":"1G","com1":"stdio"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &spec))

	run, err := Build(spec, nil)
	require.NoError(t, err)
	run.LpcDevices = append(run.LpcDevices, run.LpcDevices[len(run.LpcDevices)-1])

	_, ok := run.Preconditions().Check()
	require.False(t, ok, "want failure for duplicated lpc identifier")
}
