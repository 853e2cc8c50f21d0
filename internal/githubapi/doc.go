// Package githubapi wraps the GitHub REST API calls used by gitsweep.
//
// Client is built on go-github with an oauth2 static token transport. Every
// non-2xx response is returned as an OperationError that carries the HTTP
// status, so callers can log the failure and move on to the next item.
package githubapi
