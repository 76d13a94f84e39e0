// Package handlers provides HTTP request handlers for the playback gateway.
//
// # Handler Types
//
// Manifest handlers:
//   - PlaylistHandler.Live: GET /live/{channel}
//   - PlaylistHandler.VOD: GET /vod/{id}
//   - PlaylistHandler.Compat: GET /playlist/{channel}, the path-encoded query form
//
// Status handlers:
//   - StatusHandler.Status: GET /status, last known probe result
//   - StatusHandler.TrueStatus: GET /truestat/{secret}, runs the deep probe
//   - Ping: GET /ping
//
// # Request Flow
//
// Manifest handlers validate the stream id, resolve the effective user
// agent and hand the request to the gateway. Invalid ids are rejected with
// 400 before any upstream call. Successful responses carry the manifest as
// application/vnd.apple.mpegurl.
//
// # Error Handling
//
// All failures are written with proxy.WriteError:
//
//	{"code": 404, "error": "HTTP status 404 Not Found for url (https://usher.example/vod/1.m3u8)"}
//
// Upstream URLs in messages never include their query string.
package handlers
