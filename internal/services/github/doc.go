// Package github implements the development-event feed against the GitHub
// repository events API. The matcher depends only on the githubmatch.Feed
// interface; this package is the production implementation.
package github
