package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHardwareInfoUnavailable(t *testing.T) {
	for _, key := range hardwareKeys {
		t.Setenv(hardwarePrefix+key[1], "Unknown")
	}
	assert.Equal(t, map[string]string{"Error": "Hardware info not available"}, HardwareInfo())
}

func TestHardwareInfoPartial(t *testing.T) {
	for _, key := range hardwareKeys {
		t.Setenv(hardwarePrefix+key[1], "Unknown")
	}
	t.Setenv("SERVER_HW_CPU", "AMD EPYC 7B13")
	t.Setenv("SERVER_HW_CPU_CORES", "8")

	info := HardwareInfo()
	assert.Equal(t, "AMD EPYC 7B13", info["CPU"])
	assert.Equal(t, "8", info["CPU_Cores"])
	assert.Equal(t, "Unknown", info["Memory"])
	assert.Len(t, info, len(hardwareKeys))
}

func TestGetEnvFallback(t *testing.T) {
	t.Setenv("GWBENCH_TEST_SET", "value")
	assert.Equal(t, "value", GetEnv("GWBENCH_TEST_SET", "fallback"))
	assert.Equal(t, "fallback", GetEnv("GWBENCH_TEST_SURELY_UNSET", "fallback"))
}

func TestLoadEnvWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.Error(t, LoadEnv())
}

func TestLoadEnvReadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVER_HW_DISK=NVMe\n"), 0644))
	t.Chdir(dir)
	t.Setenv("SERVER_HW_DISK", "")
	require.NoError(t, os.Unsetenv("SERVER_HW_DISK"))

	require.NoError(t, LoadEnv())
	assert.Equal(t, "NVMe", GetEnv("SERVER_HW_DISK", "missing"))
}
