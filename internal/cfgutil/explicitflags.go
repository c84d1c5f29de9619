// Copyright (c) 2016-2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cfgutil

// ExplicitPath is a path option that remembers whether the user set it.
// A config file that is missing at its default location is not an error,
// one the user named is. It implements flags.Marshaler and
// flags.Unmarshaler.
type ExplicitPath struct {
	Value string
	set   bool
}

// NewExplicitPath returns a path option defaulting to defaultPath.
func NewExplicitPath(defaultPath string) *ExplicitPath {
	return &ExplicitPath{Value: defaultPath}
}

// ExplicitlySet reports whether the value came from the command line or a
// config file rather than the default.
func (p *ExplicitPath) ExplicitlySet() bool { return p.set }

// Expand returns the cleaned path with ~ and environment variables
// expanded.
func (p *ExplicitPath) Expand(homeDir string) string {
	return CleanAndExpandPath(p.Value, homeDir)
}

// MarshalFlag implements the flags.Marshaler interface.
func (p *ExplicitPath) MarshalFlag() (string, error) { return p.Value, nil }

// UnmarshalFlag implements the flags.Unmarshaler interface.
func (p *ExplicitPath) UnmarshalFlag(value string) error {
	p.Value = value
	p.set = true
	return nil
}
