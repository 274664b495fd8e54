// Package config loads and validates the declarative TOML document that
// describes one delivery run: the run identity and locations, the set of
// processing units discovered from [units.unitNN] tables, the external tool
// binaries and their tunables, and logging options.
//
// Unit discovery is dynamic: any table key under [units] matching the
// unit-naming pattern (prefix "unit" plus a zero-padded numeric suffix) is
// considered, and the resulting unit list is ordered ascending by suffix so
// per-unit directory naming stays stable across runs.
package config
