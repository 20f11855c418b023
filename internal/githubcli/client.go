package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/execshell"
	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/gitrepo"
	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/manifest"
)

const (
	releaseSubcommandConstant               = "release"
	viewSubcommandConstant                  = "view"
	repoFlagConstant                        = "--repo"
	jsonFlagConstant                        = "--json"
	releaseJSONFieldsConstant               = "name,body,tagName"
	githubHostConstant                      = "github.com"
	githubTokenEnvironmentVariableConstant  = "GH_TOKEN"
	repositoryReferenceTemplateConstant     = "%s/%s"
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	releaseNotFoundMarkerConstant           = "release not found"
	noReleasesMarkerConstant                = "no releases"
	lookupOperationNameConstant             = "LookupRelease"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
)

// ErrExecutorNotConfigured indicates the client was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation string
	Cause     error
}

// Error describes the failed operation.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ReleaseCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type ReleaseCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client resolves hosted release metadata through the GitHub CLI.
type Client struct {
	executor ReleaseCommandExecutor
	token    string
}

// NewClient constructs a client. The token is optional and exported to the gh process when present.
func NewClient(executor ReleaseCommandExecutor, token string) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor, token: strings.TrimSpace(token)}, nil
}

type releaseViewResponse struct {
	Name    string `json:"name"`
	Body    string `json:"body"`
	TagName string `json:"tagName"`
}

// LookupRelease fetches the release named by sourceRef, or the latest release when sourceRef is empty.
//
// Repositories not hosted on github.com and ordinary missing releases report
// found=false without error. Unexpected CLI failures are returned as
// OperationError values for the caller to downgrade.
func (client *Client) LookupRelease(executionContext context.Context, repositoryURL string, sourceRef string) (manifest.ReleaseMetadata, bool, error) {
	remoteURL, parseError := gitrepo.ParseRemoteURL(repositoryURL)
	if parseError != nil || !strings.EqualFold(remoteURL.Host, githubHostConstant) {
		return manifest.ReleaseMetadata{}, false, nil
	}

	commandArguments := []string{releaseSubcommandConstant, viewSubcommandConstant}
	trimmedSourceRef := strings.TrimSpace(sourceRef)
	if len(trimmedSourceRef) > 0 {
		commandArguments = append(commandArguments, trimmedSourceRef)
	}
	commandArguments = append(
		commandArguments,
		repoFlagConstant, fmt.Sprintf(repositoryReferenceTemplateConstant, remoteURL.Owner, remoteURL.Repository),
		jsonFlagConstant, releaseJSONFieldsConstant,
	)

	commandDetails := execshell.CommandDetails{Arguments: commandArguments}
	if len(client.token) > 0 {
		commandDetails.EnvironmentVariables = map[string]string{githubTokenEnvironmentVariableConstant: client.token}
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		if isReleaseAbsence(executionError) {
			return manifest.ReleaseMetadata{}, false, nil
		}
		return manifest.ReleaseMetadata{}, false, OperationError{Operation: lookupOperationNameConstant, Cause: executionError}
	}

	var decodedResponse releaseViewResponse
	if decodeError := json.Unmarshal([]byte(executionResult.StandardOutput), &decodedResponse); decodeError != nil {
		return manifest.ReleaseMetadata{}, false, OperationError{
			Operation: lookupOperationNameConstant,
			Cause:     fmt.Errorf(responseDecodingErrorTemplateConstant, lookupOperationNameConstant, decodeError),
		}
	}

	return manifest.ReleaseMetadata{Name: decodedResponse.Name, Changelog: decodedResponse.Body}, true, nil
}

// isReleaseAbsence recognizes gh failures that mean the release simply does not exist.
func isReleaseAbsence(executionError error) bool {
	commandFailure := execshell.CommandFailedError{}
	if !errors.As(executionError, &commandFailure) {
		return false
	}
	loweredStandardError := strings.ToLower(commandFailure.Result.StandardError)
	return strings.Contains(loweredStandardError, releaseNotFoundMarkerConstant) ||
		strings.Contains(loweredStandardError, noReleasesMarkerConstant)
}
