// Package identity persists the session identity used to negotiate proxy
// credentials with the tunnel broker.
//
// The identity is a random UUID generated on first negotiation and written
// to a small YAML record in the per-user configuration directory. Later
// process starts reuse the stored value so the broker sees a stable session
// owner. An absent record is valid and simply triggers a fresh negotiation.
//
// # Usage
//
//	store := identity.NewStore(cfg.Identity.Path)
//	id, err := store.Load()
//	if err != nil {
//	    return err
//	}
//	if id == nil {
//	    // no identity yet; the broker will mint one
//	}
//
// The record is written once at startup, before the server accepts traffic,
// and is never mutated while requests are being served.
package identity
