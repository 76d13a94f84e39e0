// Package secrets resolves configuration values that must not be written
// into configuration files in plain text.
//
// A reference takes one of three forms:
//
//	env:LUMINOUS_TRUESTAT_SECRET   read from an environment variable
//	file:/run/secrets/truestat     read from a file with 0600 or 0400 permissions
//	anything-else                  used literally
//
// File values have surrounding whitespace trimmed.
package secrets
