// Package inference drives the external speech model.
//
// The model, processor, and tokenizer live in a separate process. Generator is
// the seam the pipeline depends on; CommandGenerator implements it by running a
// configured executable once per batch, writing a JSON request to its stdin and
// decoding the generation tensors it prints to stdout.
package inference
