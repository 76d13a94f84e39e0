// Package allowlist holds the set of inbound query parameter names that may
// be forwarded to the manifest endpoint.
//
// The keys mirror the platform player's capability flags and drift as the
// player evolves, so they are data rather than code: a built-in default is
// used unless a YAML file is configured, and a Holder lets the file be
// swapped at runtime without interrupting in-flight requests.
//
// File format:
//
//	version: "player 1.18"
//	keys:
//	  - player_backend
//	  - supported_codecs
//	  - cdm
package allowlist
