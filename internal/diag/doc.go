// Package diag defines the diagnostic model shared by every compiler phase.
//
// Phases report findings through a Reporter so that emission stays decoupled
// from storage; BagReporter collects them into a Bag, which supports limits,
// sorting, deduplication and merging. Rendering lives in internal/diagfmt.
//
// Pipeline passes that work on the IR do not hold a Reporter. They return
// typed errors implementing Coded, and ToDiagnostics turns those (including
// multierr aggregates) into Diagnostics at the driver boundary.
package diag
