// Package output appends prediction records to a shared JSON-lines file.
//
// Several ranks may write the same file. Every batch is appended under an
// exclusive advisory lock on a "<file>.lock" sibling so lines never interleave.
// The first writer of a run truncates the file and records the run id in a
// "<file>.run" sidecar; writers that find their own run id there append, which
// is also how resumed runs keep earlier output.
package output
