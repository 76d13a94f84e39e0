// Package broker negotiates upstream proxy credentials with the tunnel broker.
//
// Negotiation is a two-step exchange performed once at startup:
//
//  1. background_init registers the session identity and returns either a
//     session key (InitSuccess) or a refusal (InitBlocked).
//  2. zgettunnels lists candidate tunnels for a region. One candidate is
//     chosen at random and combined with the identity-derived login and the
//     returned agent key into a Credential.
//
// A blocked session, a permanently blocked success response, or an empty
// tunnel list are fatal: the gateway must not serve traffic through a broken
// proxy. The operator recovers by regenerating the identity.
//
// # Identity Lifecycle
//
// Acquire wraps Negotiate with identity persistence. The stored identity is
// reused unless regeneration is requested, and the negotiated identity is
// written back unless discarding is requested.
//
// Credentials are not refreshed during the process lifetime. When the broker
// expires a session the process must be restarted.
package broker
