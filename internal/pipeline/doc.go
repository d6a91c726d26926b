// Package pipeline runs one rank's share of a transcription job.
//
// A run loads the manifest, probes missing durations, takes this rank's shard,
// drops utterances the ledger already holds when resuming, and then walks the
// shard in fixed-size batches. Each batch goes through the generator, gets its
// transition scores computed, is optionally text-normalized, and is appended
// to the shared output file before being recorded in the ledger.
//
// Batch failures abort the run. Probe failures only drop the affected
// utterance.
package pipeline
