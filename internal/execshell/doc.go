// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with lifecycle logging and converts
// non-zero exit codes into typed errors. OSCommandRunner is the default
// os/exec backed runner; tests substitute recording runners so git
// interactions used by gitsweep can be exercised without a real repository.
package execshell
