package middleware

import (
	"fmt"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// compressionMinSize skips tiny JSON status bodies.
const compressionMinSize = 512

// CompressionMiddleware gzip-encodes responses for clients that accept it.
func CompressionMiddleware() (func(http.Handler) http.Handler, error) {
	wrap, err := gzhttp.NewWrapper(
		gzhttp.MinSize(compressionMinSize),
		gzhttp.ContentTypes([]string{
			"application/vnd.apple.mpegurl",
			"application/json",
			"text/plain",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip wrapper: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return wrap(next)
	}, nil
}
