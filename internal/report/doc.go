// Package report renders operation results either as colored console tables
// or as a YAML document suitable for further processing.
package report
