package artifact

import "strings"

// Variant is the build configuration whose artifacts are staged.
type Variant int

const (
	// Release selects unsuffixed artifacts. It is the zero value.
	Release Variant = iota
	// Debug selects artifacts carrying the debug suffix.
	Debug
)

// debugSuffix is appended to the base file name of debug artifacts.
const debugSuffix = "d"

// ParseVariant classifies s as Debug when it equals "debug" ignoring case.
// Any other value, including "" and padded spellings like " debug", is Release.
func ParseVariant(s string) Variant {
	if strings.EqualFold(s, "debug") {
		return Debug
	}

	return Release
}

// Suffix returns the file name suffix of the variant.
func (v Variant) Suffix() string {
	if v == Debug {
		return debugSuffix
	}

	return ""
}

// String implements fmt.Stringer and pflag.Value.
func (v Variant) String() string {
	if v == Debug {
		return "Debug"
	}

	return "Release"
}

// Set implements pflag.Value. It never fails: unknown names mean Release.
func (v *Variant) Set(s string) error {
	*v = ParseVariant(s)

	return nil
}

// Type implements pflag.Value.
func (*Variant) Type() string {
	return "variant"
}
