// Package cli constructs the gitsweep command-line interface, wiring the
// Cobra command hierarchy, the layered configuration loader, and structured
// logging. Execute runs the default command set.
package cli
