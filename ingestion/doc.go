// Package ingestion persists inbound messages into the entity graph and
// keeps each chat's sliding-window chunks in sync with new traffic.
//
// The Processor type handles one inbound message at a time: it get-or-creates
// the sender, chat and media rows, upserts the message, and triggers an
// incremental chunk refresh. Messages of one chat are processed sequentially
// relative to each other; different chats proceed concurrently.
//
// The Chunker type owns the windowing algorithm: fixed-size windows of
// ChunkSize messages advancing by ChunkSize-ChunkOverlap, with the partial
// tail never emitted. Chunk embedding runs asynchronously on a worker pool;
// embedding failures are logged but never fail ingestion.
package ingestion
