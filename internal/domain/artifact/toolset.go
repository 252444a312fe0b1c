package artifact

import (
	"strings"
	"unicode/utf8"
)

// Toolset identifies the compiler ABI artifacts were built with, e.g. "vc140".
type Toolset string

// ParseToolset derives a toolset from a compiler version token by dropping
// its leading character and prefixing tag: ("v140", "vc") gives "vc140".
// An empty or single-character token yields an empty toolset.
func ParseToolset(token, tag string) Toolset {
	token = strings.TrimSpace(token)

	_, size := utf8.DecodeRuneInString(token)
	if size >= len(token) {
		return ""
	}

	return Toolset(tag + token[size:])
}

// IsZero reports whether no toolset was given.
func (t Toolset) IsZero() bool {
	return t == ""
}

// String implements fmt.Stringer.
func (t Toolset) String() string {
	return string(t)
}
