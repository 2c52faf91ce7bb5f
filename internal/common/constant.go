// Package common contains shared constants and sentinel errors used across
// Afterlight components.
package common

// AuthorizationHeaderName carries the bearer access token on REST requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in the Authorization header.
const BearerPrefix = "Bearer "

// HealthServiceName is the service name reported by the gRPC health endpoint.
const HealthServiceName = "afterlight.vaults"
