// Package blob defines the narrow object-storage contract the pipeline
// depends on and a filesystem-backed implementation used by the daemon
// and tests. Keys are slash-separated paths such as transcripts/{id}.json.
package blob
