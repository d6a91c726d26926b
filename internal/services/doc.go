// Package services defines shared utilities consumed by the pipeline and the
// external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, ranks, and batch numbers for
//     logging.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification uniform between the ledger and the CLI.
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay consistent across ranks.
package services
