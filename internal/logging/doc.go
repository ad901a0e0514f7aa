// Package logging provides concrete implementations of the bcpstage.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: Writes formatted lines to any io.Writer (stderr by default)
//   - NullLogger: Discards all messages (useful for testing)
//
// NewRunLogger wires a ConsoleLogger to stdout and a per-run log file, the
// way every import, export and merge run is recorded.
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
