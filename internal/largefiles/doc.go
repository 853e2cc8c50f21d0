// Package largefiles finds oversized blobs anywhere in a repository's history.
//
// The scan lists reachable objects with git rev-list, measures them in a
// single git cat-file batch, and keeps the blobs above a threshold.
package largefiles
