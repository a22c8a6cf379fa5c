// Package cli provides the interactive pinvault command-line front end.
//
// It wires configuration and the vault services into an interactive REPL.
// Typical flow: prompt for the PIN, start a background auto-lock watcher,
// and execute user commands until exit.
//
// Key features:
//   - Initialize / Unlock / Lock / ChangePin / Reset
//   - Add, list, search, show, update, and delete stored credentials
//   - Idle auto-lock driven by a ticker goroutine
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartAutoLockWatcher, and runREPL for details.
package cli
