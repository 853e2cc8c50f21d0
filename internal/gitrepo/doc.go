// Package gitrepo reads the GitHub coordinates of a local clone.
//
// ParseRemoteURL understands the ssh and https remote forms GitHub hands out;
// OriginResolver runs git to read the origin remote of a working tree so
// commands pointed at a clone do not need --owner and --repository.
package gitrepo
