// Package textindex implements an embeddable, in-memory full-text index.
// Documents are registered under caller-supplied IDs, tokenized into an
// inverted index of positional postings, and queried with free text to
// produce a ranked ResultSet.
//
// The engine performs no internal locking. An Engine is owned by a single
// goroutine, or callers must serialize mutations themselves; read-only
// searches are safe to run concurrently only while no mutation is in
// flight.
//
// Known gap: re-adding a document ID that is already indexed resets
// postings only for tokens the new text still produces, and does not
// refresh the stored document length. Tokens from the earlier text that no
// longer occur keep their stale postings. Callers that need a clean update
// must Remove before Add.
package textindex
