// Package maintenance performs one-off remote changes on a repository:
// archiving it, deleting individual files through the contents API, and
// closing pull requests.
package maintenance
