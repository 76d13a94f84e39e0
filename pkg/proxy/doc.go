// Package proxy maps internal errors to the gateway's HTTP error contract.
//
// Every error produced while serving a request is normalized into a single
// tagged *Error by HandleError before it crosses the HTTP boundary. Only
// this package chooses status codes and only this package redacts upstream
// error text, so nothing downstream of admission can leak a token,
// signature or client IP carried in an upstream URL.
//
// # Mapping
//
//	invalid stream id           400 invalid_request
//	bad deep-status secret      403 forbidden
//	upstream non-2xx            status preserved, upstream
//	missing playback token      404 upstream
//	network failure             502 transport
//	load shed / probe failure   503 overloaded / unavailable
//	boundary timeout            504 timeout
//	anything else               500 internal
//
// # Usage
//
//	manifest, err := gw.Process(ctx, req)
//	if err != nil {
//	    proxy.WriteError(w, r, err)
//	    return
//	}
//
// The error body is always {"code": <status>, "error": <message>}.
package proxy
