// Luminous is a playback gateway that fetches stream manifests through a
// negotiated regional tunnel.
//
// It serves live and VOD manifests over HTTP, providing:
//   - Tunnel negotiation with a persisted session identity
//   - Playback token and manifest retrieval with retry and backoff
//   - Inbound parameter allow-listing and identifier spoofing
//   - Load shedding and a hard per-request timeout
//   - An end-to-end deep status probe
//
// Usage:
//
//	# Start the gateway with default configuration
//	luminous run
//
//	# Start with a custom configuration file and region
//	luminous run --config /etc/luminous/luminous.yaml --region de
//
//	# List tunnel regions
//	luminous countries
//
//	# Show the stored session identity
//	luminous identity show
//
//	# Show recent deep status probes
//	luminous probes --limit 10
package main

func main() {
	Execute()
}
