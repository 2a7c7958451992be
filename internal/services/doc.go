// Package services defines shared utilities consumed by the job processor
// and the external collaborator clients.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, step names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     (validation vs transient) for the processor's error policy.
//
// Collaborator clients (GitHub events feed, judge) live in subdirectories
// and use these helpers so error handling stays uniform across the pipeline.
package services
