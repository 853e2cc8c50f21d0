// Package metrics records gitsweep outcomes as Prometheus counters and writes
// them to a node-exporter textfile, so scheduled runs can be scraped without
// a long-lived server.
package metrics
