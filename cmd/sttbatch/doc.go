// Package main hosts the sttbatch CLI entrypoint and command graph.
//
// The Cobra-based command tree turns one invocation per rank into a pipeline
// run, and offers the supporting views an operator needs around it: ledger
// status, environment checks, the supported language table, offline scoring
// of saved generation dumps, and configuration scaffolding.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
