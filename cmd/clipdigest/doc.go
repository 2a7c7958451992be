// Command clipdigest is the operator CLI for the clipdigest pipeline. It
// manages configuration, creates and inspects content-generation jobs,
// enriches stored items with development context, and reports environment
// health.
package main
