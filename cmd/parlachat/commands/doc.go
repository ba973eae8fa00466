// Package commands defines the parlachat CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - init      Create the local key pair if it does not exist
//   - register  Publish the local public key to the directory
//   - send      Seal a text message into an envelope
//   - read      Resolve an envelope back to renderable text
//   - preview   Produce a chat-list preview for an envelope
//
// # Implementation
//
// The root command reads configuration from flags and the environment
// (a .env file is honored when present) and builds the client before any
// subcommand runs, so handlers share one key store and one set of HTTP
// clients.
package commands
