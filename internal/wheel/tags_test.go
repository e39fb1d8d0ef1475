package wheel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpreterTag(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"3.7":    "cp37",
		"3.8":    "cp38",
		"3.12":   "cp312",
		"3.10.4": "cp310",
	}
	for version, want := range cases {
		got, err := InterpreterTag(version)
		require.NoError(t, err, version)
		assert.Equal(t, want, got)
	}

	_, err := InterpreterTag("3")
	assert.Error(t, err)
	_, err = InterpreterTag("")
	assert.Error(t, err)
}

func TestABITag(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "cp37m", ABITag("cp37"))
	assert.Equal(t, "cp38", ABITag("cp38"))
	assert.Equal(t, "cp312", ABITag("cp312"))
}

func TestPlatformTag(t *testing.T) {
	t.Parallel()
	cases := []struct {
		os, arch string
		want     string
	}{
		{"macos", "universal2", "macosx_11_0_universal2"},
		{"windows", "x64", "win_amd64"},
		{"windows", "x86", "win32"},
		{"linux", "x86_64", "manylinux_2_17_x86_64"},
		{"linux", "aarch64", "manylinux_2_17_aarch64"},
	}
	for _, tc := range cases {
		got, err := PlatformTag(tc.os, tc.arch)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := PlatformTag("plan9", "mips")
	assert.Error(t, err)
}

func TestManylinuxTagNormalizesLegacyAliases(t *testing.T) {
	t.Parallel()
	got, err := ManylinuxTag("manylinux2014", "x86_64")
	require.NoError(t, err)
	assert.Equal(t, "manylinux_2_17_x86_64", got)

	got, err = ManylinuxTag("manylinux_2_28", "aarch64")
	require.NoError(t, err)
	assert.Equal(t, "manylinux_2_28_aarch64", got)

	_, err = ManylinuxTag("musllinux", "x86_64")
	assert.Error(t, err)
}

func TestCompatibleWith(t *testing.T) {
	t.Parallel()

	f, err := ParseFilename("rocksdict-0.3.10-cp39-cp39-manylinux_2_17_x86_64.whl")
	require.NoError(t, err)

	assert.True(t, f.CompatibleWith("cp39", "manylinux_2_17_x86_64"))
	// Legacy alias refers to the same target.
	assert.True(t, f.CompatibleWith("cp39", "manylinux2014_x86_64"))
	assert.False(t, f.CompatibleWith("cp310", "manylinux_2_17_x86_64"))
	assert.False(t, f.CompatibleWith("cp39", "manylinux_2_17_aarch64"))
}

func TestCompatibleWithCompressedTagSets(t *testing.T) {
	t.Parallel()

	f, err := ParseFilename("speedict-0.3.10-cp38-cp38-manylinux_2_17_x86_64.manylinux2014_x86_64.whl")
	require.NoError(t, err)
	assert.True(t, f.CompatibleWith("cp38", "manylinux_2_17_x86_64"))

	pure, err := ParseFilename("requests-2.31.0-py3-none-any.whl")
	require.NoError(t, err)
	assert.True(t, pure.CompatibleWith("cp311", "win_amd64"))
}
