package wheel

import (
	"fmt"
	"regexp"
	"strings"
)

// Filename is a parsed wheel filename:
//
//	{distribution}-{version}[-{build}]-{python tag}-{abi tag}-{platform tag}.whl
type Filename struct {
	Distribution string
	Version      string
	Build        string
	PythonTag    string
	ABITag       string
	PlatformTag  string
}

var normalizeRe = regexp.MustCompile(`[-_.]+`)

// NormalizeDistribution canonicalizes a distribution name the way package
// indexes compare them: lowercase with runs of separators collapsed to '-'.
func NormalizeDistribution(name string) string {
	return strings.ToLower(normalizeRe.ReplaceAllString(name, "-"))
}

// escapedName is the distribution as it appears inside a wheel filename,
// where '-' is not allowed and becomes '_'.
func escapedName(name string) string {
	return strings.ReplaceAll(NormalizeDistribution(name), "-", "_")
}

// ParseFilename splits a wheel filename into its tag components. The build
// segment is optional; anything else malformed is an error.
func ParseFilename(name string) (Filename, error) {
	base, ok := strings.CutSuffix(name, ".whl")
	if !ok {
		return Filename{}, fmt.Errorf("%q is not a wheel filename", name)
	}
	parts := strings.Split(base, "-")
	switch len(parts) {
	case 5:
		return Filename{
			Distribution: parts[0],
			Version:      parts[1],
			PythonTag:    parts[2],
			ABITag:       parts[3],
			PlatformTag:  parts[4],
		}, nil
	case 6:
		return Filename{
			Distribution: parts[0],
			Version:      parts[1],
			Build:        parts[2],
			PythonTag:    parts[3],
			ABITag:       parts[4],
			PlatformTag:  parts[5],
		}, nil
	default:
		return Filename{}, fmt.Errorf("wheel filename %q has %d segments, want 5 or 6", name, len(parts))
	}
}

// String renders the canonical filename for the tag tuple.
func (f Filename) String() string {
	segments := []string{escapedName(f.Distribution), f.Version}
	if f.Build != "" {
		segments = append(segments, f.Build)
	}
	segments = append(segments, f.PythonTag, f.ABITag, f.PlatformTag)
	return strings.Join(segments, "-") + ".whl"
}

// ForTarget builds the canonical filename a build job is expected to produce
// for a distribution/version on a concrete interpreter and platform.
func ForTarget(distribution, version, pythonVersion, osName, arch string) (Filename, error) {
	pyTag, err := InterpreterTag(pythonVersion)
	if err != nil {
		return Filename{}, err
	}
	platTag, err := PlatformTag(osName, arch)
	if err != nil {
		return Filename{}, err
	}
	return Filename{
		Distribution: distribution,
		Version:      version,
		PythonTag:    pyTag,
		ABITag:       ABITag(pyTag),
		PlatformTag:  platTag,
	}, nil
}
