package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitsweep/internal/execshell"
)

const (
	defaultRemoteNameConstant            = "origin"
	gitRemoteSubcommandConstant          = "remote"
	gitGetURLArgumentConstant            = "get-url"
	executorNotConfiguredMessageConstant = "git executor not configured"
	remoteLookupErrorTemplateConstant    = "unable to read remote %s of %s: %w"
	originResolvedMessageConstant        = "Repository inferred from remote"
	repositoryPathLogFieldConstant       = "path"
	remoteNameLogFieldConstant           = "remote"
	ownerLogFieldConstant                = "owner"
	repositoryLogFieldConstant           = "repository"
)

// ErrExecutorNotConfigured indicates the resolver was constructed without a git executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// GitExecutor runs git subcommands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// OriginResolver reads remote URLs of local clones.
type OriginResolver struct {
	logger   *zap.Logger
	executor GitExecutor
}

// NewOriginResolver constructs an OriginResolver.
func NewOriginResolver(logger *zap.Logger, executor GitExecutor) (*OriginResolver, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OriginResolver{logger: logger, executor: executor}, nil
}

// Resolve returns the parsed origin remote of the clone at repositoryPath.
func (resolver *OriginResolver) Resolve(executionContext context.Context, repositoryPath string) (RemoteURL, error) {
	result, executionError := resolver.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitGetURLArgumentConstant, defaultRemoteNameConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return RemoteURL{}, fmt.Errorf(remoteLookupErrorTemplateConstant, defaultRemoteNameConstant, repositoryPath, executionError)
	}

	remote, parseError := ParseRemoteURL(strings.TrimSpace(result.StandardOutput))
	if parseError != nil {
		return RemoteURL{}, fmt.Errorf(remoteLookupErrorTemplateConstant, defaultRemoteNameConstant, repositoryPath, parseError)
	}

	resolver.logger.Debug(
		originResolvedMessageConstant,
		zap.String(repositoryPathLogFieldConstant, repositoryPath),
		zap.String(remoteNameLogFieldConstant, defaultRemoteNameConstant),
		zap.String(ownerLogFieldConstant, remote.Owner),
		zap.String(repositoryLogFieldConstant, remote.Repository),
	)
	return remote, nil
}
