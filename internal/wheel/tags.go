// Package wheel models the artifact naming scheme the pipeline produces and
// verifies: wheel filenames, interpreter tags, and platform compatibility tags.
package wheel

import (
	"fmt"
	"strings"
)

// Legacy manylinux aliases map onto the PEP 600 glibc-versioned form.
var manylinuxAliases = map[string]string{
	"manylinux1":    "manylinux_2_5",
	"manylinux2010": "manylinux_2_12",
	"manylinux2014": "manylinux_2_17",
}

// InterpreterTag returns the CPython tag for a dotted interpreter version,
// e.g. "3.9" -> "cp39".
func InterpreterTag(version string) (string, error) {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("invalid interpreter version %q", version)
	}
	return "cp" + parts[0] + parts[1], nil
}

// ABITag returns the CPython ABI tag matching an interpreter tag. CPython
// dropped the 'm' ABI suffix with 3.8.
func ABITag(interpreterTag string) string {
	if interpreterTag == "cp27" || interpreterTag == "cp36" || interpreterTag == "cp37" {
		return interpreterTag + "m"
	}
	return interpreterTag
}

// PlatformTag maps a job's (os, arch) pair to the wheel platform tag the job
// is expected to produce. Linux targets get the manylinux_2_17 baseline.
func PlatformTag(osName, arch string) (string, error) {
	switch osName {
	case "macos":
		switch arch {
		case "universal2":
			return "macosx_11_0_universal2", nil
		case "x86_64":
			return "macosx_10_12_x86_64", nil
		case "arm64":
			return "macosx_11_0_arm64", nil
		}
	case "windows":
		switch arch {
		case "x64", "x86_64", "amd64":
			return "win_amd64", nil
		case "x86":
			return "win32", nil
		}
	case "linux":
		switch arch {
		case "x86_64", "aarch64", "i686", "armv7l", "ppc64le", "s390x":
			return ManylinuxTag("manylinux_2_17", arch)
		}
	}
	return "", fmt.Errorf("no platform tag for os=%q arch=%q", osName, arch)
}

// ManylinuxTag builds a manylinux platform tag from a variant and an
// architecture. Legacy variant names (manylinux2014 etc.) are accepted and
// normalized to their PEP 600 equivalent.
func ManylinuxTag(variant, arch string) (string, error) {
	if canonical, ok := manylinuxAliases[variant]; ok {
		variant = canonical
	}
	if !strings.HasPrefix(variant, "manylinux_") {
		return "", fmt.Errorf("invalid manylinux variant %q", variant)
	}
	return variant + "_" + arch, nil
}

// samePlatform reports whether two platform tags refer to the same target,
// treating legacy manylinux aliases as equal to their PEP 600 form.
func samePlatform(a, b string) bool {
	return normalizePlatform(a) == normalizePlatform(b)
}

func normalizePlatform(tag string) string {
	for alias, canonical := range manylinuxAliases {
		if strings.HasPrefix(tag, alias+"_") {
			return canonical + strings.TrimPrefix(tag, alias)
		}
	}
	return tag
}

// CompatibleWith reports whether the wheel can install on the given
// interpreter/platform pair. Pure-Python tags (py3, abi "none", platform
// "any") match everything on their axis.
func (f Filename) CompatibleWith(interpreterTag, platformTag string) bool {
	if !tagMatches(f.PythonTag, interpreterTag) {
		return false
	}
	if f.PlatformTag != "any" && !tagListMatches(f.PlatformTag, platformTag) {
		return false
	}
	return true
}

// Wheel tags may be compressed tag sets joined with '.', e.g.
// "manylinux_2_17_x86_64.manylinux2014_x86_64".
func tagListMatches(tagSet, want string) bool {
	for _, tag := range strings.Split(tagSet, ".") {
		if samePlatform(tag, want) {
			return true
		}
	}
	return false
}

func tagMatches(tagSet, want string) bool {
	for _, tag := range strings.Split(tagSet, ".") {
		if tag == want || tag == "py3" || (strings.HasPrefix(tag, "abi3") && strings.HasPrefix(want, "cp3")) {
			return true
		}
	}
	return false
}
