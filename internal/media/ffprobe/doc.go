// Package ffprobe provides a typed wrapper around ffprobe JSON output for audio
// files.
//
// Prober runs ffprobe through an injectable Runner so manifest probing can be
// tested without the binary. Duration is the entry point the manifest loader
// uses; Inspect exposes the full decoded result.
package ffprobe
