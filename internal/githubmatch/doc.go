// Package githubmatch correlates a clip's creation timestamp with nearby
// development activity (pull requests, pushes, issues) and produces a
// confidence-scored context object. The matcher is deterministic: the same
// clip timestamp against the same event set always yields the same context.
package githubmatch
