// Package session assembles the per-invocation collaborators shared by
// gitsweep subcommands: the resolved GitHub client and repository, the report
// renderer and the metrics recorder.
package session
