package githubapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v66/github"
)

const (
	clientNotConfiguredMessageConstant       = "github api client not configured"
	fileNotFoundMessageConstant              = "file not found"
	commitDateUnavailableMessageConstant     = "commit date unavailable"
	invalidInputErrorTemplateConstant        = "%s: %s"
	operationErrorMessageTemplateConstant    = "%s operation failed"
	operationErrorWithCauseTemplateConstant  = "%s operation failed: %s"
	operationErrorWithStatusTemplateConstant = "%s operation failed with status %d: %s"
	listBranchesOperationNameConstant        = OperationName("ListBranches")
	listTagsOperationNameConstant            = OperationName("ListTags")
	resolveCommitDateOperationNameConstant   = OperationName("ResolveCommitDate")
	deleteBranchOperationNameConstant        = OperationName("DeleteBranch")
	deleteTagOperationNameConstant           = OperationName("DeleteTag")
	archiveRepositoryOperationNameConstant   = OperationName("ArchiveRepository")
	getFileOperationNameConstant             = OperationName("GetFile")
	putFileOperationNameConstant             = OperationName("PutFile")
	deleteFileOperationNameConstant          = OperationName("DeleteFile")
	closePullRequestOperationNameConstant    = OperationName("ClosePullRequest")
	decodeFileContentOperationNameConstant   = OperationName("DecodeFileContent")
	unknownStatusCodeConstant                = 0
)

// OperationName identifies a GitHub REST workflow supported by the client.
type OperationName string

var (
	// ErrClientNotConfigured indicates the client was used without construction.
	ErrClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)
	// ErrFileNotFound indicates the requested repository file does not exist.
	ErrFileNotFound = errors.New(fileNotFoundMessageConstant)
	// ErrCommitDateUnavailable indicates a commit carries neither a committer nor an author date.
	ErrCommitDateUnavailable = errors.New(commitDateUnavailableMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps REST failures together with the HTTP status observed.
type OperationError struct {
	Operation  OperationName
	StatusCode int
	Cause      error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	if operationError.StatusCode != unknownStatusCodeConstant {
		return fmt.Sprintf(operationErrorWithStatusTemplateConstant, operationError.Operation, operationError.StatusCode, operationError.Cause)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

func newOperationError(operation OperationName, response *github.Response, cause error) OperationError {
	return OperationError{Operation: operation, StatusCode: responseStatusCode(response, cause), Cause: cause}
}

func responseStatusCode(response *github.Response, cause error) int {
	if response != nil && response.Response != nil {
		return response.StatusCode
	}
	var errorResponse *github.ErrorResponse
	if errors.As(cause, &errorResponse) && errorResponse.Response != nil {
		return errorResponse.Response.StatusCode
	}
	return unknownStatusCodeConstant
}

func isNotFound(response *github.Response, cause error) bool {
	return responseStatusCode(response, cause) == http.StatusNotFound
}
