// Package client talks to the Afterlight server on behalf of the CLI.
//
// RESTClient implements Client over the JSON API. GET requests are retried
// with backoff by go-retryablehttp; POST requests go out exactly once, so a
// failed artifact write is always re-done by the caller as a fresh
// encryption. An access token that the server reports as expired is
// refreshed once and the request is replayed.
//
// HealthProbe checks the gRPC health service and is used by the CLI to
// switch between online and offline mode.
//
// API failures are returned as *ResponseError, which unwraps to the matching
// sentinel from internal/common so callers can use errors.Is. Transport
// failures unwrap to ErrUnavailable.
package client
