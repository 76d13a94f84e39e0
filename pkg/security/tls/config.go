package tls

import "crypto/tls"

// NewServerConfig returns a server TLS configuration that serves the
// reloader's current certificate. TLS 1.2 is the minimum accepted version.
func NewServerConfig(r *CertificateReloader) *tls.Config {
	return &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: r.GetCertificateFunc(),
	}
}
