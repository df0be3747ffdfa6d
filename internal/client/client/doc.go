// Package client contains the client-side transport for clipher.
//
// # Overview
//
// The package provides:
//  1. The protocol contract (see the Client interface): key lease, register,
//     login, TFA verification and check, session lookup and logout.
//  2. An HTTP/JSON implementation (see HTTPClient) that maps error bodies to
//     *APIError values. APIError matches the sentinels in internal/common via
//     errors.Is, so callers can test for common.ErrWrongTfaCode and friends.
//  3. Local profile bootstrap (InitDatabase, RunMigrations): an SQLite
//     database with embedded goose migrations.
//
// # Error Handling
//
// Transport failures are reported as ErrUnavailable; a 429 answer carries
// the server's retry hint in APIError.RetryAfter and matches ErrRateLimited.
package client
