package supervisor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnmarshalConfigValid(t *testing.T) {
	spec, err := UnmarshalConfig([]byte(`{"name":"t","cpu":1,"mem":"1G"}`))
	require.NoError(t, err)
	require.Equal(t, "t", spec.Name)
}

func TestUnmarshalConfigMalformedReportsPosition(t *testing.T) {
	_, err := UnmarshalConfig([]byte("{\n  \"name\": ,\n}"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}

func TestParseRebootOn(t *testing.T) {
	codes, err := parseRebootOn("0,1, -2")
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, -2}, codes)
}

func TestParseRebootOnInvalid(t *testing.T) {
	_, err := parseRebootOn("0,nope")
	require.Error(t, err)
}

func TestContainsInt(t *testing.T) {
	require.True(t, containsInt([]int{0, 1}, 1))
	require.False(t, containsInt([]int{0, 1}, 2))
}
