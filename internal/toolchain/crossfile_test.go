package toolchain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const validCrossFile = `
host_machine {
    system "linux"
    cpu_family "arm"
    cpu "aarch64"
    endian "little"
}

binaries {
    c "/usr/bin/aarch64-linux-gnu-gcc"
    cpp "/usr/bin/aarch64-linux-gnu-g++"
}

properties {
    sys_root "/opt/sysroot"
    retries 3
}
`

func TestParseCrossFileValid(t *testing.T) {
	cf, err := ParseCrossFile("cross.txt", validCrossFile)
	require.NoError(t, err)

	require.True(t, cf.HostMachine.Present)
	require.Equal(t, "linux", cf.HostMachine.System)
	require.Equal(t, "arm", cf.HostMachine.CPUFamily)

	require.Equal(t, []string{"/usr/bin/aarch64-linux-gnu-gcc"}, cf.Binaries["c"])

	sysRoot := cf.Properties["sys_root"]
	require.Equal(t, "string", sysRoot.Kind)
	require.Equal(t, []string{"/opt/sysroot"}, sysRoot.Strs)

	retries := cf.Properties["retries"]
	require.Equal(t, "int", retries.Kind)
	require.Equal(t, []int64{3}, retries.Ints)
}

func TestParseCrossFileRequiresMachineSection(t *testing.T) {
	content := `
binaries {
    c "/usr/bin/gcc"
}
properties {
    sys_root "/opt"
}
`
	_, err := ParseCrossFile("cross.txt", content)
	require.Error(t, err)
}

func TestParseCrossFileRequiresBinariesSection(t *testing.T) {
	content := `
host_machine {
    system "linux"
}
properties {
    sys_root "/opt"
}
`
	_, err := ParseCrossFile("cross.txt", content)
	require.Error(t, err)
}

func TestParseCrossFileRequiresPropertiesSection(t *testing.T) {
	content := `
host_machine {
    system "linux"
}
binaries {
    c "/usr/bin/gcc"
}
`
	_, err := ParseCrossFile("cross.txt", content)
	require.Error(t, err)
}

func TestLoadCrossFileMissingPath(t *testing.T) {
	_, err := LoadCrossFile("/nonexistent/path/does-not-exist.txt")
	require.Error(t, err)
}
