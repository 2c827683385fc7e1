package sapmodel

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is the current SDK version.
//
// This version follows semantic versioning (https://semver.org/).
const Version = "0.1.0"

// MinNativeVersion is the default lowest application major version a
// [Connector] attaches to. Override it with [WithMinVersion] or the
// min_version config key.
const MinNativeVersion = 20

// NativeVersionRange is the semver constraint of application versions this
// SDK is tested against.
const NativeVersionRange = ">= 20.0.0, < 27.0.0"

// CompatibilityStatus is the outcome of a version compatibility check.
type CompatibilityStatus int

const (
	// Unknown means the version could not be parsed.
	Unknown CompatibilityStatus = iota

	// Compatible means the version is inside [NativeVersionRange].
	Compatible

	// Incompatible means the version is outside [NativeVersionRange].
	Incompatible
)

// String returns the status name.
func (s CompatibilityStatus) String() string {
	switch s {
	case Compatible:
		return "compatible"
	case Incompatible:
		return "incompatible"
	default:
		return "unknown"
	}
}

// CompatibilityResult reports how an application version relates to the
// versions this SDK supports.
type CompatibilityResult struct {
	Status         CompatibilityStatus
	NativeVersion  string
	SDKVersion     string
	SupportedRange string
	Message        string
}

// IsCompatible reports whether the status is [Compatible].
func (r CompatibilityResult) IsCompatible() bool {
	return r.Status == Compatible
}

// CheckCompatibility checks an application version string against
// [NativeVersionRange].
func CheckCompatibility(version string) CompatibilityResult {
	return checkCompatibility(version, NativeVersionRange)
}

func checkCompatibility(version, supported string) CompatibilityResult {
	result := CompatibilityResult{
		NativeVersion:  version,
		SDKVersion:     Version,
		SupportedRange: supported,
	}

	v, err := parseNativeVersion(version)
	if err != nil {
		result.Status = Unknown
		result.Message = fmt.Sprintf("cannot parse application version %q: %v", version, err)
		return result
	}

	constraint, err := semver.NewConstraint(supported)
	if err != nil {
		result.Status = Unknown
		result.Message = fmt.Sprintf("invalid supported range %q: %v", supported, err)
		return result
	}

	if constraint.Check(v) {
		result.Status = Compatible
		result.Message = fmt.Sprintf("application %s is compatible with SDK %s", version, Version)
	} else {
		result.Status = Incompatible
		result.Message = fmt.Sprintf("application %s is not compatible with SDK %s (supported: %s)",
			version, Version, supported)
	}
	return result
}

// IsCompatible reports whether version is inside [NativeVersionRange].
func IsCompatible(version string) bool {
	return CheckCompatibility(version).IsCompatible()
}

// MustBeCompatible panics if version is not inside [NativeVersionRange].
func MustBeCompatible(version string) {
	if r := CheckCompatibility(version); !r.IsCompatible() {
		panic("sapmodel: " + r.Message)
	}
}

// parseNativeVersion parses application versions such as "23.1.0",
// "v22" or the four-part "21.2.0.1970". Parts beyond the third are kept as
// build metadata.
func parseNativeVersion(version string) (*semver.Version, error) {
	s := strings.TrimSpace(version)
	if s == "" {
		return nil, fmt.Errorf("empty version")
	}
	core, pre, _ := strings.Cut(s, "-")
	parts := strings.Split(core, ".")
	if len(parts) > 3 {
		s = strings.Join(parts[:3], ".")
		if pre != "" {
			s += "-" + pre
		}
		s += "+" + strings.Join(parts[3:], ".")
	}
	return semver.NewVersion(s)
}

// nativeMajor returns the major component of an application version.
func nativeMajor(version string) (int, error) {
	v, err := parseNativeVersion(version)
	if err != nil {
		return 0, err
	}
	return int(v.Major()), nil
}
