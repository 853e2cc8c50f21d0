// Package gitignore keeps .gitignore files stocked with boilerplate patterns.
//
// Merge is shared by LocalUpdater, which edits a file on an afero
// filesystem, and RemoteUpdater, which commits through the GitHub contents
// API. Both append only the patterns that are missing.
package gitignore
