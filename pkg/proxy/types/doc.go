// Package types defines the JSON bodies written by the gateway's HTTP
// surface.
//
//   - ErrorResponse: {"code": <http-status>, "error": <message>}
//   - StatusResponse: {"online": <bool>}
//
// All types use standard encoding/json with explicit struct tags. Field
// names are part of the client contract and must not change.
package types
