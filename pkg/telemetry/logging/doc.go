// Package logging configures structured logging with secret redaction.
//
// # Overview
//
// The logging package builds a log/slog logger that:
//   - Writes JSON or text records at a configurable level
//   - Redacts credentials from every string attribute before it is written
//   - Adds the request ID carried by the context to *Context log calls
//
// # Usage
//
//	logger, err := logging.Setup(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Redact: true,
//	})
//	if err != nil {
//	    return err
//	}
//
//	// Setup installs the logger as the slog default, so package-level
//	// calls are redacted too.
//	slog.Info("manifest fetched", "url", manifestURL) // query string removed
//
// # Redaction
//
// The following are removed from attribute values:
//
//   - URL query strings: https://host/p.m3u8?token=x → https://host/p.m3u8?REDACTED
//   - URL userinfo: https://user:pw@host → https://REDACTED@host
//   - USER-IP manifest markers: USER-IP="1.2.3.4" → USER-IP="REDACTED"
//   - token, sig and password parameters outside URLs
//
// Attributes whose key names a secret (password, secret, token, sig,
// agent_key) are masked entirely.
package logging
