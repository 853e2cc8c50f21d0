package githubauth

import (
	"fmt"
	"os"
	"strings"
)

const tokenSourceResolutionErrorTemplateConstant = "unable to resolve token source %q: %w"

// TokenOrigin describes where a resolved token came from.
type TokenOrigin string

// Token origins in decreasing precedence.
const (
	TokenOriginNone          TokenOrigin = "none"
	TokenOriginExplicit      TokenOrigin = "explicit"
	TokenOriginConfiguration TokenOrigin = "configuration"
	TokenOriginTokenSource   TokenOrigin = "token_source"
	TokenOriginEnvironment   TokenOrigin = "environment"
)

// ResolutionRequest lists the candidate token locations for one invocation.
type ResolutionRequest struct {
	ExplicitToken   string
	ConfiguredToken string
	TokenSource     string
}

// Resolution reports the selected token. Token is empty when no candidate
// produced a value.
type Resolution struct {
	Token               string
	Origin              TokenOrigin
	EnvironmentVariable string
}

// Found reports whether a token was resolved.
func (resolution Resolution) Found() bool {
	return len(resolution.Token) > 0
}

// Resolver selects a token from explicit input, configuration, a token
// source declaration, and finally the well-known environment variables.
type Resolver struct {
	environmentLookup EnvironmentLookup
	fileReader        FileReader
}

// NewResolver creates a resolver with optional dependency overrides.
func NewResolver(environmentLookup EnvironmentLookup, fileReader FileReader) *Resolver {
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	if fileReader == nil {
		fileReader = defaultFileReader
	}
	return &Resolver{environmentLookup: environmentLookup, fileReader: fileReader}
}

// Resolve returns the highest-precedence token. A malformed or unreadable
// token source yields an error together with the environment fallback, so
// callers can warn and continue.
func (resolver *Resolver) Resolve(request ResolutionRequest) (Resolution, error) {
	if trimmedToken := strings.TrimSpace(request.ExplicitToken); len(trimmedToken) > 0 {
		return Resolution{Token: trimmedToken, Origin: TokenOriginExplicit}, nil
	}
	if trimmedToken := strings.TrimSpace(request.ConfiguredToken); len(trimmedToken) > 0 {
		return Resolution{Token: trimmedToken, Origin: TokenOriginConfiguration}, nil
	}

	var sourceError error
	if trimmedSource := strings.TrimSpace(request.TokenSource); len(trimmedSource) > 0 {
		sourceConfiguration, parseError := ParseTokenSource(trimmedSource)
		if parseError == nil {
			token, readError := readTokenSource(sourceConfiguration, resolver.environmentLookup, resolver.fileReader)
			if readError == nil {
				return Resolution{Token: token, Origin: TokenOriginTokenSource}, nil
			}
			sourceError = fmt.Errorf(tokenSourceResolutionErrorTemplateConstant, trimmedSource, readError)
		} else {
			sourceError = fmt.Errorf(tokenSourceResolutionErrorTemplateConstant, trimmedSource, parseError)
		}
	}

	if token, variableName, found := resolveEnvironmentToken(resolver.environmentLookup); found {
		return Resolution{Token: token, Origin: TokenOriginEnvironment, EnvironmentVariable: variableName}, sourceError
	}

	return Resolution{Origin: TokenOriginNone}, sourceError
}
