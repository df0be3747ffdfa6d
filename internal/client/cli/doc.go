// Package cli provides the clipher command-line client.
//
// It wires configuration, the local profile database and the HTTP client,
// then runs one command per invocation:
//
//	register [username]     create an account and enroll an authenticator
//	verify-tfa [username]   confirm the authenticator once after registration
//	login [username]        password step followed by the one-time code
//	whoami                  show the user of the stored session
//	logout                  revoke the stored session
//	ping                    check that the server answers
//
// Passwords are read from the terminal without echo and wiped after use.
package cli
