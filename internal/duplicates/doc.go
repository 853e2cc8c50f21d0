// Package duplicates finds files with identical content under a directory.
package duplicates
