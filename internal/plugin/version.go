package plugin

import (
	"math"
	"strconv"

	"github.com/Masterminds/semver/v3"
)

// CurrentInterfaceVersion is the interface version whose factory contract
// this package implements.
var CurrentInterfaceVersion = semver.MustParse("1.0.0")

// Version is the interface version reported by a plugin library.
type Version struct {
	raw    float64
	semver *semver.Version
}

// ParseVersion classifies the floating point version exported by a library.
// Values that do not form a version (negative, NaN, infinite) are kept but
// never compare as current.
func ParseVersion(raw float64) Version {
	v := Version{raw: raw}

	if raw < 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return v
	}

	if sv, err := semver.NewVersion(strconv.FormatFloat(raw, 'f', -1, 64)); err == nil {
		v.semver = sv
	}

	return v
}

// Raw returns the value reported by the library.
func (v Version) Raw() float64 {
	return v.raw
}

// IsCurrent reports whether the library speaks the current interface version.
func (v Version) IsCurrent() bool {
	return v.semver != nil && v.semver.Equal(CurrentInterfaceVersion)
}

// IsFuture reports whether the library reports a newer interface version
// than the current one.
func (v Version) IsFuture() bool {
	return v.semver != nil && v.semver.GreaterThan(CurrentInterfaceVersion)
}

func (v Version) String() string {
	if v.semver == nil {
		return strconv.FormatFloat(v.raw, 'g', -1, 64)
	}

	return v.semver.String()
}
