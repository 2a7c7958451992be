// Package judge scores composed digests with an OpenAI-compatible chat
// completion API. The pipeline treats the judge as an optional
// collaborator: when disabled, drafts ship without a verdict.
package judge
