// Package ui renders execshell lifecycle events for people reading a terminal
// rather than for log collectors.
package ui
