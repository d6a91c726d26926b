// Package preflight provides readiness checks for the tools, directories and
// state a transcription run depends on.
//
// These checks run in two contexts:
//   - "sttbatch run" calls RunAll before loading the manifest. If any check
//     fails the rank exits before the inference command is started.
//   - "sttbatch check" prints every result, including CheckSystemDeps, so an
//     operator can fix a node before launching all ranks.
package preflight
