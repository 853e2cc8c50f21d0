package gitrepo

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/temirov/gitsweep/internal/githubapi"
)

const (
	sshSchemeConstant                   = "ssh"
	httpsSchemeConstant                 = "https"
	schemeSeparatorConstant             = "://"
	scpUserHostSeparatorConstant        = "@"
	scpHostPathSeparatorConstant        = ":"
	pathSeparatorConstant               = "/"
	gitSuffixConstant                   = ".git"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
	unsupportedSchemeMessageConstant    = "unsupported remote scheme"
	requiredValueMessageConstant        = "value required"
)

// RemoteProtocol enumerates supported git remote protocols.
type RemoteProtocol string

// Supported remote protocols.
const (
	RemoteProtocolSSH   RemoteProtocol = RemoteProtocol(sshSchemeConstant)
	RemoteProtocolHTTPS RemoteProtocol = RemoteProtocol(httpsSchemeConstant)
)

// RemoteURL identifies the hosted repository a clone points at.
type RemoteURL struct {
	Protocol   RemoteProtocol
	Host       string
	Owner      string
	Repository string
}

// Reference converts the remote into API coordinates.
func (remote RemoteURL) Reference() githubapi.RepositoryReference {
	return githubapi.RepositoryReference{Owner: remote.Owner, Name: remote.Repository}
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// ParseRemoteURL accepts scp-style (git@host:owner/repo.git), ssh:// and
// https:// remotes. Credentials and ports in URL forms are ignored.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	if strings.Contains(trimmedRemote, schemeSeparatorConstant) {
		return parseSchemeRemote(trimmedRemote)
	}
	return parseScpRemote(trimmedRemote)
}

func parseSchemeRemote(remote string) (RemoteURL, error) {
	parsedURL, parseError := url.Parse(remote)
	if parseError != nil || len(parsedURL.Hostname()) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}

	var protocol RemoteProtocol
	switch strings.ToLower(parsedURL.Scheme) {
	case sshSchemeConstant:
		protocol = RemoteProtocolSSH
	case httpsSchemeConstant:
		protocol = RemoteProtocolHTTPS
	default:
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: unsupportedSchemeMessageConstant}
	}

	owner, repository, splitError := splitOwnerAndRepository(remote, parsedURL.Path)
	if splitError != nil {
		return RemoteURL{}, splitError
	}
	return RemoteURL{Protocol: protocol, Host: parsedURL.Hostname(), Owner: owner, Repository: repository}, nil
}

func parseScpRemote(remote string) (RemoteURL, error) {
	userSeparatorIndex := strings.Index(remote, scpUserHostSeparatorConstant)
	hostSeparatorIndex := strings.Index(remote, scpHostPathSeparatorConstant)
	if userSeparatorIndex <= 0 || hostSeparatorIndex <= userSeparatorIndex+1 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}

	host := remote[userSeparatorIndex+1 : hostSeparatorIndex]
	owner, repository, splitError := splitOwnerAndRepository(remote, remote[hostSeparatorIndex+1:])
	if splitError != nil {
		return RemoteURL{}, splitError
	}
	return RemoteURL{Protocol: RemoteProtocolSSH, Host: host, Owner: owner, Repository: repository}, nil
}

func splitOwnerAndRepository(remote string, repositoryPath string) (string, string, error) {
	segments := strings.Split(strings.Trim(repositoryPath, pathSeparatorConstant), pathSeparatorConstant)
	if len(segments) != 2 {
		return "", "", RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}

	owner := segments[0]
	repository := strings.TrimSuffix(segments[1], gitSuffixConstant)
	if len(owner) == 0 || len(repository) == 0 {
		return "", "", RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
	return owner, repository, nil
}
