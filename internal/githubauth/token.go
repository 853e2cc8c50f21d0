package githubauth

import (
	"os"
	"strings"
)

// Environment variable names used by GitHub authentication helpers.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// ResolveToken returns the first non-empty GitHub authentication token observed
// in the provided environment map or the process environment.
func ResolveToken(environment map[string]string) (string, bool) {
	token, _, found := resolveEnvironmentToken(func(key string) (string, bool) {
		if value, ok := lookup(environment, key); ok {
			return value, true
		}
		return "", false
	})
	if found {
		return token, true
	}
	token, _, found = resolveEnvironmentToken(os.LookupEnv)
	return token, found
}

func resolveEnvironmentToken(environmentLookup EnvironmentLookup) (string, string, bool) {
	for _, key := range tokenPreference {
		value, exists := environmentLookup(key)
		if !exists {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) > 0 {
			return value, key, true
		}
	}
	return "", "", false
}

func lookup(environment map[string]string, key string) (string, bool) {
	if environment == nil {
		return "", false
	}
	value, exists := environment[key]
	if !exists {
		return "", false
	}
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return "", false
	}
	return value, true
}
