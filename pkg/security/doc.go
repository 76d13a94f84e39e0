// Package security groups the gateway's transport security and secret
// handling.
//
// Subpackages:
//   - tls: inbound TLS termination with certificate hot reload
//   - secrets: env: and file: references for sensitive configuration values
package security
