// Package client contains the transport layer of the gophboard client.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     auth, posts, comments, likes, "my activity" listings and profile edits.
//  2. A concrete REST implementation (see RESTClient) built on resty. It
//     injects the bearer token of the current session (TokenSource), tags each
//     request with an X-Request-ID and records request latency in a
//     Prometheus histogram.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations),
//     wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Non-2xx responses become *APIError values which unwrap to the error kinds
// of package common (ErrUnauthenticated, ErrAuthorization, ErrNotFound,
// ErrValidation, ErrNetwork). Transport failures wrap common.ErrNetwork
// together with the underlying cause.
package client
