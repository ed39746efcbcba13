// Package jsonstore keeps the application's persisted state in one JSON document and
// writes it back to disk through a single writer goroutine.
//
// The document is a mapping from domain-area name (e.g. "missions", "boycotts",
// "caisse_manifestation") to an arbitrary JSON value. Areas are decoded on demand into
// typed Go values with Get and changed with Mutate or Update; the store never enforces a
// schema, and areas nobody decodes are written back byte-for-byte.
//
// # Write path
//
//   - Mutate applies a change in memory under the store lock and bumps the version.
//   - Flush hands a request to the writer goroutine and waits for a write that started
//     after the request was accepted, so every mutation made before Flush is on disk
//     when it returns nil.
//   - Requests that pile up while a write is in flight are answered by one write.
//   - Each write serialises the current state, writes <path>.tmp and renames it over
//     <path>. A write is skipped when nothing changed since the last successful one.
//   - A failed write is logged and returned (wrapped in ErrWriteFailed) to the waiting
//     callers. The in-memory state is kept; the next flush writes everything.
//   - Update is Mutate then Flush. A flush failure after the change was applied is
//     reported wrapped in ErrUnflushed so callers can tell it from a refused change.
//   - Close performs a final write. A Flush caught by Close returns nil when that
//     write covered its mutations and ErrClosed otherwise.
//
// # Startup
//
// A missing file is replaced by the skeleton given in Options and written immediately.
// Skeleton areas missing from an existing file are backfilled. Any other read or parse
// error is returned from Open and must stop the process.
//
// With Options.ReadOnly the file must exist and is loaded as is: no skeleton, no
// backfill, no writer goroutine. Mutate returns ErrReadOnly.
package jsonstore
