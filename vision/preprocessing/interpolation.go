package preprocessing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// Interpolation selects the resampling filter used when resizing a sample.
// The zero value means "not set" and resolves to DefaultInterpolation, so a
// Config built in code without naming a method resizes bilinearly. Code
// returns the matching PIL resampling code.
type Interpolation int

const (
	Nearest Interpolation = iota + 1
	Lanczos
	Bilinear
	Bicubic
	Box
	Hamming
)

// DefaultInterpolation is used when no method is configured
const DefaultInterpolation = Bilinear

var interpolationNames = map[Interpolation]string{
	Nearest:  "nearest",
	Lanczos:  "lanczos",
	Bilinear: "bilinear",
	Bicubic:  "bicubic",
	Box:      "box",
	Hamming:  "hamming",
}

// OrDefault returns DefaultInterpolation for the zero value and i otherwise
func (i Interpolation) OrDefault() Interpolation {
	if i == 0 {
		return DefaultInterpolation
	}
	return i
}

// Code returns the PIL resampling code (NEAREST=0 ... HAMMING=5)
func (i Interpolation) Code() int {
	return int(i.OrDefault()) - 1
}

// String returns the lower-case name of the method
func (i Interpolation) String() string {
	if i == 0 {
		return "default"
	}
	if name, ok := interpolationNames[i]; ok {
		return name
	}
	return fmt.Sprintf("interpolation(%d)", int(i))
}

// Valid reports whether i names a supported method or is unset
func (i Interpolation) Valid() bool {
	_, ok := interpolationNames[i.OrDefault()]
	return ok
}

// Filter returns the imaging resample filter implementing the method.
func (i Interpolation) Filter() (imaging.ResampleFilter, error) {
	switch i.OrDefault() {
	case Nearest:
		return imaging.NearestNeighbor, nil
	case Lanczos:
		return imaging.Lanczos, nil
	case Bilinear:
		return imaging.Linear, nil
	case Bicubic:
		// PIL's bicubic kernel uses a = -0.5, which is Catmull-Rom.
		return imaging.CatmullRom, nil
	case Box:
		return imaging.Box, nil
	case Hamming:
		return imaging.Hamming, nil
	}
	return imaging.ResampleFilter{}, fmt.Errorf("unsupported interpolation %d", int(i))
}

// ParseInterpolation accepts either a method name ("bilinear", "nearest", ...)
// or its numeric code ("2").
func ParseInterpolation(s string) (Interpolation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if code, err := strconv.Atoi(s); err == nil {
		i := Interpolation(code + 1)
		if code < 0 || !i.Valid() {
			return 0, fmt.Errorf("unsupported interpolation code %d", code)
		}
		return i, nil
	}

	switch s {
	case "linear":
		return Bilinear, nil
	case "cubic", "catmullrom":
		return Bicubic, nil
	case "nearest_neighbor", "nearestneighbor":
		return Nearest, nil
	}
	for i, name := range interpolationNames {
		if name == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown interpolation %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (i Interpolation) MarshalText() ([]byte, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("unsupported interpolation %d", int(i))
	}
	return []byte(i.OrDefault().String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so the method can be
// read from environment variables.
func (i *Interpolation) UnmarshalText(text []byte) error {
	parsed, err := ParseInterpolation(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
