// Package scoring turns the raw per-step score tensors produced by a sequence
// generator into per-token transition scores.
//
// A transition score is the log-probability a generated token received at the
// step it was emitted. Greedy generation keeps one candidate per row; beam
// search keeps several, and BeamIndices records which beam row of each step's
// tensor contributed the token kept in the final sequence. Negative beam
// indices mark slots whose beam had already finished; those positions come
// back as exact zeros.
//
// Everything here is a pure function over its inputs so batches can be scored
// concurrently without coordination.
package scoring
