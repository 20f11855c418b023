package hubclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	versionEndpointTemplateConstant        = "%s/projects/%s/versions/%s"
	versionsEndpointTemplateConstant       = "%s/projects/%s/versions"
	authorizationHeaderNameConstant        = "Authorization"
	bearerTokenTemplateConstant            = "Bearer %s"
	contentTypeHeaderNameConstant          = "Content-Type"
	nameFieldConstant                      = "name"
	versionFieldConstant                   = "version"
	releaseTypeFieldConstant               = "release_type"
	releaseDateFieldConstant               = "release_date"
	changelogFieldConstant                 = "changelog"
	tagsFieldConstant                      = "tags"
	filesFieldConstant                     = "files"
	baseURLRequiredMessageConstant         = "hub api base url required"
	versionExistsMessageConstant           = "version already exists"
	apiErrorTemplateConstant               = "hub api request failed with status %d: %s"
	requestCreationErrorTemplateConstant   = "unable to create hub api request: %w"
	requestExecutionErrorTemplateConstant  = "unable to reach hub api: %w"
	archiveOpenErrorTemplateConstant       = "unable to open archive %s: %w"
	multipartEncodingErrorTemplateConstant = "unable to encode upload payload: %w"
	responseBodyLimitBytesConstant         = 64 * 1024
)

// Sentinel errors surfaced by the client.
var (
	ErrBaseURLRequired = errors.New(baseURLRequiredMessageConstant)
	ErrVersionExists   = errors.New(versionExistsMessageConstant)
)

// APIError reports a non-success response from the Hub01 shop API.
type APIError struct {
	StatusCode int
	Message    string
}

// Error describes the failed request.
func (apiError APIError) Error() string {
	return fmt.Sprintf(apiErrorTemplateConstant, apiError.StatusCode, apiError.Message)
}

// CreateVersionRequest carries the fields and payload of a version upload.
type CreateVersionRequest struct {
	Name        string
	Version     string
	ReleaseType string
	ReleaseDate string
	Changelog   string
	Tags        []string
	ArchivePath string
}

// Client performs authenticated requests against a Hub01 shop API endpoint.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a client for the provided API base URL and token.
func NewClient(baseURL string, token string) (*Client, error) {
	trimmedBaseURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if len(trimmedBaseURL) == 0 {
		return nil, ErrBaseURLRequired
	}
	return &Client{baseURL: trimmedBaseURL, token: strings.TrimSpace(token), httpClient: &http.Client{}}, nil
}

// VersionExists probes whether the project already has the given version.
// A 404 response means the version is absent and is not an error.
func (client *Client) VersionExists(executionContext context.Context, projectSlug string, version string) (bool, error) {
	endpoint := fmt.Sprintf(versionEndpointTemplateConstant, client.baseURL, url.PathEscape(projectSlug), url.PathEscape(version))

	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, endpoint, nil)
	if requestError != nil {
		return false, fmt.Errorf(requestCreationErrorTemplateConstant, requestError)
	}
	client.authorize(request)

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		return false, fmt.Errorf(requestExecutionErrorTemplateConstant, responseError)
	}
	defer func() { _ = response.Body.Close() }()

	switch {
	case response.StatusCode == http.StatusOK:
		return true, nil
	case response.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, APIError{StatusCode: response.StatusCode, Message: readResponseMessage(response.Body)}
	}
}

// CreateVersion uploads a new project version with its zipped payload.
// A conflict response is reported as ErrVersionExists.
func (client *Client) CreateVersion(executionContext context.Context, projectSlug string, createRequest CreateVersionRequest) error {
	archiveFile, openError := os.Open(createRequest.ArchivePath)
	if openError != nil {
		return fmt.Errorf(archiveOpenErrorTemplateConstant, createRequest.ArchivePath, openError)
	}
	defer func() { _ = archiveFile.Close() }()

	var payloadBuffer bytes.Buffer
	multipartWriter := multipart.NewWriter(&payloadBuffer)

	formFields := map[string]string{
		nameFieldConstant:        createRequest.Name,
		versionFieldConstant:     createRequest.Version,
		releaseTypeFieldConstant: createRequest.ReleaseType,
		releaseDateFieldConstant: createRequest.ReleaseDate,
		changelogFieldConstant:   createRequest.Changelog,
	}
	for fieldName, fieldValue := range formFields {
		if fieldError := multipartWriter.WriteField(fieldName, fieldValue); fieldError != nil {
			return fmt.Errorf(multipartEncodingErrorTemplateConstant, fieldError)
		}
	}
	for _, tagValue := range createRequest.Tags {
		if fieldError := multipartWriter.WriteField(tagsFieldConstant, tagValue); fieldError != nil {
			return fmt.Errorf(multipartEncodingErrorTemplateConstant, fieldError)
		}
	}

	filePart, filePartError := multipartWriter.CreateFormFile(filesFieldConstant, filepath.Base(createRequest.ArchivePath))
	if filePartError != nil {
		return fmt.Errorf(multipartEncodingErrorTemplateConstant, filePartError)
	}
	if _, copyError := io.Copy(filePart, archiveFile); copyError != nil {
		return fmt.Errorf(multipartEncodingErrorTemplateConstant, copyError)
	}
	if closeError := multipartWriter.Close(); closeError != nil {
		return fmt.Errorf(multipartEncodingErrorTemplateConstant, closeError)
	}

	endpoint := fmt.Sprintf(versionsEndpointTemplateConstant, client.baseURL, url.PathEscape(projectSlug))
	request, requestError := http.NewRequestWithContext(executionContext, http.MethodPost, endpoint, &payloadBuffer)
	if requestError != nil {
		return fmt.Errorf(requestCreationErrorTemplateConstant, requestError)
	}
	client.authorize(request)
	request.Header.Set(contentTypeHeaderNameConstant, multipartWriter.FormDataContentType())

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		return fmt.Errorf(requestExecutionErrorTemplateConstant, responseError)
	}
	defer func() { _ = response.Body.Close() }()

	switch {
	case response.StatusCode >= http.StatusOK && response.StatusCode < http.StatusMultipleChoices:
		return nil
	case response.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrVersionExists, readResponseMessage(response.Body))
	default:
		return APIError{StatusCode: response.StatusCode, Message: readResponseMessage(response.Body)}
	}
}

func (client *Client) authorize(request *http.Request) {
	if len(client.token) > 0 {
		request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(bearerTokenTemplateConstant, client.token))
	}
}

func readResponseMessage(responseBody io.Reader) string {
	limitedBody, _ := io.ReadAll(io.LimitReader(responseBody, responseBodyLimitBytesConstant))
	return strings.TrimSpace(string(limitedBody))
}
