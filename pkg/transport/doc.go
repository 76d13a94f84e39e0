// Package transport provides the shared outbound HTTP client used for every
// call to the streaming platform.
//
// A Client routes requests through an optional upstream proxy, bounds each
// attempt with a connect and total timeout, and retries transient failures
// (network errors and 5xx responses) with exponential backoff until a total
// retry budget is spent. 4xx responses are returned to the caller on the
// first attempt and never retried.
//
// # Usage
//
//	client, err := transport.New(transport.Config{
//	    Name:           "gateway",
//	    Proxy:          proxyURL,
//	    ConnectTimeout: 20 * time.Second,
//	    TotalTimeout:   20 * time.Second,
//	    Retry: transport.RetryConfig{
//	        MinDelay:    time.Millisecond,
//	        MaxDelay:    2 * time.Second,
//	        MaxDuration: 15 * time.Second,
//	    },
//	})
//
//	resp, err := client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
//	    return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
//	})
//	if err != nil {
//	    return err
//	}
//	defer resp.Body.Close()
//	if err := transport.CheckStatus(resp); err != nil {
//	    return err // *transport.StatusError
//	}
//
// The request builder is invoked once per attempt, so request bodies are
// always fresh.
//
// # Thread Safety
//
// A Client is immutable after construction and safe for concurrent use.
package transport
