// Package ledger persists run bookkeeping in SQLite.
//
// Every rank records when it starts and finishes a run and which utterances it
// has written, along with per-utterance score summaries. The ledger is what
// makes --resume possible: a restarted rank skips utterances already recorded
// for its run. The status command reads the same tables.
//
// The database lives in the state directory and is opened in WAL mode with a
// busy timeout so ranks on one host can share it.
package ledger
