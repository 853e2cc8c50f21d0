// Package githubauth locates GitHub API tokens.
//
// Tokens are taken, in order, from an explicit argument, the configuration
// file, a token source declaration ("env:NAME" or "file:PATH"), and the
// GH_TOKEN, GITHUB_TOKEN and GITHUB_API_TOKEN environment variables.
package githubauth
