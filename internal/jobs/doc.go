// Package jobs implements the asynchronous content-generation pipeline:
// the job state machine, its SQLite store, the five-step processor, and
// the polling worker that drains the queue.
//
// A job moves queued -> processing -> completed | failed; the terminal
// states are final. Within one job the five pipeline steps run strictly in
// order and each step's progress write lands before the step body starts,
// so a concurrent status read always observes a fully completed step.
// Across jobs there is no ordering guarantee.
package jobs
