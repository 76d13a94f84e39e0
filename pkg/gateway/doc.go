// Package gateway turns one inbound stream request into a playable manifest.
//
// For every request the gateway fetches a fresh playback token, builds the
// manifest URL, forwards only allow-listed player capability parameters and
// then appends its own synthetic session parameters, which always win on a
// name collision. The manifest text is inspected for the upstream-reported
// USER-COUNTRY marker, and optionally has its USER-IP marker redacted before
// it is returned.
//
// # Pipeline
//
//  1. NewStreamRequest validates and normalizes the stream identifier.
//     Invalid VOD ids never reach the network.
//  2. FetchToken posts the persisted PlaybackAccessToken query.
//  3. FetchManifest filters, appends, fetches and inspects the manifest.
//
// Process runs steps 2 and 3. Tokens are never cached: the upstream tracks
// session state per token.
//
// All outbound calls go through a Doer, normally a *transport.Client, so
// retries and proxy routing are configured in one place.
package gateway
