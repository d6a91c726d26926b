// Package manifest reads JSON-lines utterance manifests and prepares them for
// inference.
//
// Each line holds one object with at least an "audio_filepath" key. Probe fills
// in durations with ffprobe across a bounded worker pool and drops entries that
// cannot be decoded; Shard splits the survivors between ranks; Batches cuts a
// rank's share into model-sized groups.
package manifest
