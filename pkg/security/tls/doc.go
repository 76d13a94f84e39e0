/*
Package tls terminates TLS for the gateway's inbound listener.

Certificates are loaded from PEM files and checked for changes on an
interval, so renewed certificates are picked up without a restart:

	reloader := tls.NewCertificateReloader(certFile, keyFile, time.Hour)
	if err := reloader.Start(ctx); err != nil {
		return err
	}

	srv.TLSConfig = tls.NewServerConfig(reloader)
*/
package tls
