// Package naming contains identifiers used by parameters: a mod-qualified FullName
// and a FullCategory used to group parameters in settings screens.
package naming

import "strings"

// Separator joins a mod prefix and a parameter name.
const Separator = "|"

// FullName is a mod-qualified parameter name. Two names are equal when their full strings are equal.
// The zero value is an empty name.
type FullName struct {
	full string
	mod  string
	name string
}

// NewName returns a FullName without a mod prefix.
func NewName(name string) FullName {
	return NewFullName("", name)
}

// NewFullName returns a FullName for name inside mod. An empty mod yields a name without prefix,
// a blank name yields an empty FullName that still remembers its mod.
func NewFullName(mod, name string) FullName {
	mod = strings.TrimSpace(mod)
	name = strings.TrimSpace(name)

	full := name
	if mod != "" && name != "" {
		full = mod + Separator + name
	}

	return FullName{full: full, mod: mod, name: name}
}

// ParseName parses "mod|name" or "name". Only the first separator splits, so the name part
// may contain further separators.
func ParseName(s string) FullName {
	mod, name, found := strings.Cut(s, Separator)
	if !found {
		return NewName(s)
	}

	return NewFullName(mod, name)
}

func (n FullName) String() string {
	return n.full
}

// Mod returns the mod prefix, empty for core parameters.
func (n FullName) Mod() string {
	return n.mod
}

// Name returns the name without the mod prefix.
func (n FullName) Name() string {
	return n.name
}

func (n FullName) IsEmpty() bool {
	return n.full == ""
}

func (n FullName) Equal(other FullName) bool {
	return n.full == other.full
}

// WithName returns a copy of n with the name part replaced.
func (n FullName) WithName(name string) FullName {
	return NewFullName(n.mod, name)
}

// WithMod returns a copy of n with the mod part replaced.
func (n FullName) WithMod(mod string) FullName {
	return NewFullName(mod, n.name)
}
