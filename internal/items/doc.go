// Package items maintains per-clip state records: processing status,
// references to externally stored transcript and development-context
// artifacts, and derived scores. Records live in SQLite; artifact payloads
// live in the blob store with their byte sizes mirrored on the record so
// non-emptiness checks need no fetch.
package items
