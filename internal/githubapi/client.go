package githubapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

const (
	defaultPageSizeConstant               = 100
	maximumPageSizeConstant               = 100
	baseURLTrailingSlashConstant          = "/"
	repositoryOwnerFieldNameConstant      = "owner"
	repositoryNameFieldNameConstant       = "repository"
	referenceNameFieldNameConstant        = "reference"
	commitSHAFieldNameConstant            = "commit_sha"
	filePathFieldNameConstant             = "path"
	commitMessageFieldNameConstant        = "message"
	fileSHAFieldNameConstant              = "sha"
	pullRequestNumberFieldNameConstant    = "pull_request_number"
	baseURLFieldNameConstant              = "base_url"
	requiredValueMessageConstant          = "value required"
	positiveValueMessageConstant          = "must be positive"
	invalidBaseURLMessageTemplateConstant = "invalid URL: %v"
	branchReferencePrefixConstant         = "heads/"
	tagReferencePrefixConstant            = "tags/"
	closedPullRequestStateConstant        = "closed"
	repositoryReferenceTemplateConstant   = "%s/%s"
)

// RepositoryReference identifies a remote repository.
type RepositoryReference struct {
	Owner string
	Name  string
}

// String renders the reference as owner/name.
func (reference RepositoryReference) String() string {
	return fmt.Sprintf(repositoryReferenceTemplateConstant, reference.Owner, reference.Name)
}

// Reference describes a branch or a tag and the commit it points to.
type Reference struct {
	Name      string
	CommitSHA string
}

// RemoteFile carries the decoded content and blob SHA of a repository file.
type RemoteFile struct {
	Path    string
	SHA     string
	Content []byte
}

// FileUpdate describes a contents API write. An empty SHA creates the file.
type FileUpdate struct {
	Path    string
	Branch  string
	Message string
	Content []byte
	SHA     string
}

// FileDeletion describes a contents API delete.
type FileDeletion struct {
	Path    string
	Branch  string
	Message string
	SHA     string
}

// ClientConfiguration configures Client construction.
type ClientConfiguration struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
	PageSize   int
}

// Client performs GitHub REST calls needed for repository maintenance.
type Client struct {
	restClient *github.Client
	pageSize   int
}

// NewClient builds a Client. An empty token produces an unauthenticated client.
func NewClient(configuration ClientConfiguration) (*Client, error) {
	httpClient := configuration.HTTPClient
	trimmedToken := strings.TrimSpace(configuration.Token)
	if len(trimmedToken) > 0 {
		tokenContext := context.Background()
		if httpClient != nil {
			tokenContext = context.WithValue(tokenContext, oauth2.HTTPClient, httpClient)
		}
		httpClient = oauth2.NewClient(tokenContext, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: trimmedToken}))
	}

	restClient := github.NewClient(httpClient)

	trimmedBaseURL := strings.TrimSpace(configuration.BaseURL)
	if len(trimmedBaseURL) > 0 {
		if !strings.HasSuffix(trimmedBaseURL, baseURLTrailingSlashConstant) {
			trimmedBaseURL += baseURLTrailingSlashConstant
		}
		parsedBaseURL, parseError := url.Parse(trimmedBaseURL)
		if parseError != nil || len(parsedBaseURL.Scheme) == 0 || len(parsedBaseURL.Host) == 0 {
			return nil, InvalidInputError{FieldName: baseURLFieldNameConstant, Message: fmt.Sprintf(invalidBaseURLMessageTemplateConstant, trimmedBaseURL)}
		}
		restClient.BaseURL = parsedBaseURL
	}

	pageSize := configuration.PageSize
	if pageSize <= 0 || pageSize > maximumPageSizeConstant {
		pageSize = defaultPageSizeConstant
	}

	return &Client{restClient: restClient, pageSize: pageSize}, nil
}

// ListBranches returns every branch of the repository, following pagination.
func (client *Client) ListBranches(executionContext context.Context, repository RepositoryReference) ([]Reference, error) {
	if validationError := client.validateRepository(repository); validationError != nil {
		return nil, validationError
	}

	listOptions := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: client.pageSize}}
	var references []Reference
	for {
		branches, response, listError := client.restClient.Repositories.ListBranches(executionContext, repository.Owner, repository.Name, listOptions)
		if listError != nil {
			return nil, newOperationError(listBranchesOperationNameConstant, response, listError)
		}
		for _, branch := range branches {
			references = append(references, Reference{Name: branch.GetName(), CommitSHA: branch.GetCommit().GetSHA()})
		}
		if response == nil || response.NextPage == 0 {
			return references, nil
		}
		listOptions.Page = response.NextPage
	}
}

// ListTags returns every tag of the repository, following pagination.
func (client *Client) ListTags(executionContext context.Context, repository RepositoryReference) ([]Reference, error) {
	if validationError := client.validateRepository(repository); validationError != nil {
		return nil, validationError
	}

	listOptions := &github.ListOptions{PerPage: client.pageSize}
	var references []Reference
	for {
		tags, response, listError := client.restClient.Repositories.ListTags(executionContext, repository.Owner, repository.Name, listOptions)
		if listError != nil {
			return nil, newOperationError(listTagsOperationNameConstant, response, listError)
		}
		for _, tag := range tags {
			references = append(references, Reference{Name: tag.GetName(), CommitSHA: tag.GetCommit().GetSHA()})
		}
		if response == nil || response.NextPage == 0 {
			return references, nil
		}
		listOptions.Page = response.NextPage
	}
}

// ResolveCommitDate returns the committer date of a commit, falling back to the author date.
func (client *Client) ResolveCommitDate(executionContext context.Context, repository RepositoryReference, commitSHA string) (time.Time, error) {
	if validationError := client.validateRepository(repository); validationError != nil {
		return time.Time{}, validationError
	}
	trimmedSHA := strings.TrimSpace(commitSHA)
	if len(trimmedSHA) == 0 {
		return time.Time{}, InvalidInputError{FieldName: commitSHAFieldNameConstant, Message: requiredValueMessageConstant}
	}

	repositoryCommit, response, commitError := client.restClient.Repositories.GetCommit(executionContext, repository.Owner, repository.Name, trimmedSHA, nil)
	if commitError != nil {
		return time.Time{}, newOperationError(resolveCommitDateOperationNameConstant, response, commitError)
	}

	commit := repositoryCommit.GetCommit()
	if committerDate := commit.GetCommitter().GetDate(); !committerDate.IsZero() {
		return committerDate.UTC(), nil
	}
	if authorDate := commit.GetAuthor().GetDate(); !authorDate.IsZero() {
		return authorDate.UTC(), nil
	}
	return time.Time{}, ErrCommitDateUnavailable
}

// DeleteBranch removes refs/heads/<name>.
func (client *Client) DeleteBranch(executionContext context.Context, repository RepositoryReference, branchName string) error {
	return client.deleteReference(executionContext, repository, branchReferencePrefixConstant, branchName, deleteBranchOperationNameConstant)
}

// DeleteTag removes refs/tags/<name>.
func (client *Client) DeleteTag(executionContext context.Context, repository RepositoryReference, tagName string) error {
	return client.deleteReference(executionContext, repository, tagReferencePrefixConstant, tagName, deleteTagOperationNameConstant)
}

// ArchiveRepository marks the repository as archived.
func (client *Client) ArchiveRepository(executionContext context.Context, repository RepositoryReference) error {
	if validationError := client.validateRepository(repository); validationError != nil {
		return validationError
	}

	_, response, editError := client.restClient.Repositories.Edit(executionContext, repository.Owner, repository.Name, &github.Repository{Archived: github.Bool(true)})
	if editError != nil {
		return newOperationError(archiveRepositoryOperationNameConstant, response, editError)
	}
	return nil
}

// GetFile fetches a file from the given branch. An empty branch reads the default branch.
func (client *Client) GetFile(executionContext context.Context, repository RepositoryReference, filePath string, branch string) (RemoteFile, error) {
	if validationError := client.validateRepository(repository); validationError != nil {
		return RemoteFile{}, validationError
	}
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return RemoteFile{}, InvalidInputError{FieldName: filePathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	var getOptions *github.RepositoryContentGetOptions
	if trimmedBranch := strings.TrimSpace(branch); len(trimmedBranch) > 0 {
		getOptions = &github.RepositoryContentGetOptions{Ref: trimmedBranch}
	}

	fileContent, _, response, getError := client.restClient.Repositories.GetContents(executionContext, repository.Owner, repository.Name, trimmedPath, getOptions)
	if getError != nil {
		if isNotFound(response, getError) {
			return RemoteFile{}, ErrFileNotFound
		}
		return RemoteFile{}, newOperationError(getFileOperationNameConstant, response, getError)
	}
	if fileContent == nil {
		return RemoteFile{}, ErrFileNotFound
	}

	decodedContent, decodeError := fileContent.GetContent()
	if decodeError != nil {
		return RemoteFile{}, OperationError{Operation: decodeFileContentOperationNameConstant, Cause: decodeError}
	}

	return RemoteFile{Path: trimmedPath, SHA: fileContent.GetSHA(), Content: []byte(decodedContent)}, nil
}

// PutFile creates the file when update.SHA is empty and updates it otherwise.
func (client *Client) PutFile(executionContext context.Context, repository RepositoryReference, update FileUpdate) error {
	if validationError := client.validateRepository(repository); validationError != nil {
		return validationError
	}
	trimmedPath := strings.TrimSpace(update.Path)
	if len(trimmedPath) == 0 {
		return InvalidInputError{FieldName: filePathFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(update.Message)) == 0 {
		return InvalidInputError{FieldName: commitMessageFieldNameConstant, Message: requiredValueMessageConstant}
	}

	fileOptions := &github.RepositoryContentFileOptions{
		Message: github.String(update.Message),
		Content: update.Content,
	}
	if trimmedBranch := strings.TrimSpace(update.Branch); len(trimmedBranch) > 0 {
		fileOptions.Branch = github.String(trimmedBranch)
	}

	var response *github.Response
	var putError error
	if trimmedSHA := strings.TrimSpace(update.SHA); len(trimmedSHA) > 0 {
		fileOptions.SHA = github.String(trimmedSHA)
		_, response, putError = client.restClient.Repositories.UpdateFile(executionContext, repository.Owner, repository.Name, trimmedPath, fileOptions)
	} else {
		_, response, putError = client.restClient.Repositories.CreateFile(executionContext, repository.Owner, repository.Name, trimmedPath, fileOptions)
	}
	if putError != nil {
		return newOperationError(putFileOperationNameConstant, response, putError)
	}
	return nil
}

// DeleteFile removes a file through the contents API.
func (client *Client) DeleteFile(executionContext context.Context, repository RepositoryReference, deletion FileDeletion) error {
	if validationError := client.validateRepository(repository); validationError != nil {
		return validationError
	}
	trimmedPath := strings.TrimSpace(deletion.Path)
	if len(trimmedPath) == 0 {
		return InvalidInputError{FieldName: filePathFieldNameConstant, Message: requiredValueMessageConstant}
	}
	trimmedSHA := strings.TrimSpace(deletion.SHA)
	if len(trimmedSHA) == 0 {
		return InvalidInputError{FieldName: fileSHAFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(deletion.Message)) == 0 {
		return InvalidInputError{FieldName: commitMessageFieldNameConstant, Message: requiredValueMessageConstant}
	}

	fileOptions := &github.RepositoryContentFileOptions{
		Message: github.String(deletion.Message),
		SHA:     github.String(trimmedSHA),
	}
	if trimmedBranch := strings.TrimSpace(deletion.Branch); len(trimmedBranch) > 0 {
		fileOptions.Branch = github.String(trimmedBranch)
	}

	_, response, deleteError := client.restClient.Repositories.DeleteFile(executionContext, repository.Owner, repository.Name, trimmedPath, fileOptions)
	if deleteError != nil {
		return newOperationError(deleteFileOperationNameConstant, response, deleteError)
	}
	return nil
}

// ClosePullRequest sets the pull request state to closed.
func (client *Client) ClosePullRequest(executionContext context.Context, repository RepositoryReference, pullRequestNumber int) error {
	if validationError := client.validateRepository(repository); validationError != nil {
		return validationError
	}
	if pullRequestNumber <= 0 {
		return InvalidInputError{FieldName: pullRequestNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}

	_, response, editError := client.restClient.PullRequests.Edit(executionContext, repository.Owner, repository.Name, pullRequestNumber, &github.PullRequest{State: github.String(closedPullRequestStateConstant)})
	if editError != nil {
		return newOperationError(closePullRequestOperationNameConstant, response, editError)
	}
	return nil
}

func (client *Client) deleteReference(executionContext context.Context, repository RepositoryReference, referencePrefix string, referenceName string, operation OperationName) error {
	if validationError := client.validateRepository(repository); validationError != nil {
		return validationError
	}
	trimmedName := strings.TrimSpace(referenceName)
	if len(trimmedName) == 0 {
		return InvalidInputError{FieldName: referenceNameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	response, deleteError := client.restClient.Git.DeleteRef(executionContext, repository.Owner, repository.Name, referencePrefix+trimmedName)
	if deleteError != nil {
		return newOperationError(operation, response, deleteError)
	}
	return nil
}

func (client *Client) validateRepository(repository RepositoryReference) error {
	if client == nil || client.restClient == nil {
		return ErrClientNotConfigured
	}
	if len(strings.TrimSpace(repository.Owner)) == 0 {
		return InvalidInputError{FieldName: repositoryOwnerFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(repository.Name)) == 0 {
		return InvalidInputError{FieldName: repositoryNameFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}
