// Package cli provides the interactive Afterlight command-line client.
//
// It wires configuration, the local SQLite cache, the REST client and the
// client services into a REPL. A background watcher probes the server's
// gRPC health service and switches the session between online and offline
// mode; offline, vaults and artifacts are served from the cache and nothing
// can be added.
//
// Vault keys live only in the session key ring. They are wiped on lock,
// logout, exit and after the configured idle timeout.
package cli
