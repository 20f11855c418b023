package masspublish_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/manifest"
	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/masspublish"
	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/publish"
)

const (
	testProjectSlugConstant = "my-mod"
	testAPITokenConstant    = "secret-token"
)

type scriptedPrompter struct {
	responses []bool
	prompts   []string
}

func (prompter *scriptedPrompter) Confirm(prompt string) (bool, error) {
	prompter.prompts = append(prompter.prompts, prompt)
	if len(prompter.responses) == 0 {
		return false, nil
	}
	nextResponse := prompter.responses[0]
	prompter.responses = prompter.responses[1:]
	return nextResponse, nil
}

func initializeTaggedRepository(testInstance *testing.T, tagNames ...string) string {
	repositoryDirectory := testInstance.TempDir()
	initializedRepository, initError := git.PlainInit(repositoryDirectory, false)
	require.NoError(testInstance, initError)

	worktree, worktreeError := initializedRepository.Worktree()
	require.NoError(testInstance, worktreeError)

	previousHash := plumbing.ZeroHash
	for tagIndex, tagName := range tagNames {
		fileName := "readme.txt"
		require.NoError(testInstance, os.WriteFile(filepath.Join(repositoryDirectory, fileName), []byte(tagName), 0o644))
		_, addError := worktree.Add(fileName)
		require.NoError(testInstance, addError)

		signature := &object.Signature{
			Name:  "Test Committer",
			Email: "committer@example.com",
			When:  time.Date(2024, time.January, 1+tagIndex, 12, 0, 0, 0, time.UTC),
		}
		commitHash, commitError := worktree.Commit("release "+tagName, &git.CommitOptions{Author: signature, Committer: signature})
		require.NoError(testInstance, commitError)
		previousHash = commitHash

		_, tagError := initializedRepository.CreateTag(tagName, commitHash, nil)
		require.NoError(testInstance, tagError)
	}
	require.NotEqual(testInstance, plumbing.ZeroHash, previousHash)

	return repositoryDirectory
}

func newBatchService(testInstance *testing.T, prompter masspublish.ConfirmationPrompter, output *bytes.Buffer) *masspublish.Service {
	publisher, publisherError := publish.NewService(publish.ServiceDependencies{Logger: zap.NewNop(), Output: output})
	require.NoError(testInstance, publisherError)

	service, serviceError := masspublish.NewService(masspublish.ServiceDependencies{
		Logger:    zap.NewNop(),
		Publisher: publisher,
		Prompter:  prompter,
		Output:    output,
	})
	require.NoError(testInstance, serviceError)
	return service
}

func batchOptions(repositoryDirectory string, apiURL string, manifestDirectory string) masspublish.Options {
	return masspublish.Options{
		Input:             repositoryDirectory,
		Pattern:           `^v\d`,
		Subfolder:         ".",
		ReleaseType:       manifest.ReleaseTypeRelease,
		ManifestDirectory: manifestDirectory,
		ProjectSlug:       testProjectSlugConstant,
		APIURL:            apiURL,
		APIToken:          testAPITokenConstant,
		StripTagPrefix:    true,
	}
}

func TestRunRejectsInvalidPattern(testInstance *testing.T) {
	service := newBatchService(testInstance, &scriptedPrompter{}, &bytes.Buffer{})

	_, runError := service.Run(context.Background(), masspublish.Options{Input: testInstance.TempDir(), Pattern: "["})
	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), "invalid tag pattern")
}

func TestRunAbortsWhenNoTagsMatch(testInstance *testing.T) {
	repositoryDirectory := initializeTaggedRepository(testInstance, "experimental")

	output := &bytes.Buffer{}
	prompter := &scriptedPrompter{}
	service := newBatchService(testInstance, prompter, output)

	summary, runError := service.Run(context.Background(), batchOptions(repositoryDirectory, "http://localhost:1", testInstance.TempDir()))
	require.NoError(testInstance, runError)
	require.True(testInstance, summary.Aborted)
	require.Empty(testInstance, summary.Results)
	require.Contains(testInstance, output.String(), "No tags matched")
	require.Empty(testInstance, prompter.prompts)
}

func TestRunAbortsWhenTagSelectionDeclined(testInstance *testing.T) {
	repositoryDirectory := initializeTaggedRepository(testInstance, "v1.0.0", "v2.0.0")

	output := &bytes.Buffer{}
	prompter := &scriptedPrompter{responses: []bool{false}}
	service := newBatchService(testInstance, prompter, output)

	summary, runError := service.Run(context.Background(), batchOptions(repositoryDirectory, "http://localhost:1", testInstance.TempDir()))
	require.NoError(testInstance, runError)
	require.True(testInstance, summary.Aborted)
	require.Contains(testInstance, output.String(), "Aborted by user.")
	require.Len(testInstance, prompter.prompts, 1)
}

func TestRunAbortsBeforeUploadWhenReviewDeclined(testInstance *testing.T) {
	repositoryDirectory := initializeTaggedRepository(testInstance, "v1.0.0", "v2.0.0")

	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requestCount++
		writer.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	output := &bytes.Buffer{}
	prompter := &scriptedPrompter{responses: []bool{true, false}}
	service := newBatchService(testInstance, prompter, output)

	manifestDirectory := testInstance.TempDir()
	summary, runError := service.Run(context.Background(), batchOptions(repositoryDirectory, server.URL, manifestDirectory))
	require.NoError(testInstance, runError)
	require.True(testInstance, summary.Aborted)
	require.Equal(testInstance, 0, requestCount)
	require.Contains(testInstance, output.String(), "MANIFEST REVIEW")

	require.FileExists(testInstance, filepath.Join(manifestDirectory, "v1.0.0", "manifest.json"))
	require.FileExists(testInstance, filepath.Join(manifestDirectory, "v2.0.0", "manifest.json"))
}

func TestRunUploadsEveryMatchingTag(testInstance *testing.T) {
	repositoryDirectory := initializeTaggedRepository(testInstance, "v1.0.0", "v2.0.0", "experimental")

	uploadedVersions := []string{}
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method == http.MethodGet {
			writer.WriteHeader(http.StatusNotFound)
			return
		}
		require.NoError(testInstance, request.ParseMultipartForm(8<<20))
		uploadedVersions = append(uploadedVersions, request.FormValue("version"))
		writer.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	output := &bytes.Buffer{}
	prompter := &scriptedPrompter{responses: []bool{true, true}}
	service := newBatchService(testInstance, prompter, output)

	summary, runError := service.Run(context.Background(), batchOptions(repositoryDirectory, server.URL, testInstance.TempDir()))
	require.NoError(testInstance, runError)
	require.False(testInstance, summary.Aborted)
	require.Equal(testInstance, 2, summary.SucceededCount())
	require.Empty(testInstance, summary.FailedTagNames())
	require.Equal(testInstance, []string{"1.0.0", "2.0.0"}, uploadedVersions)
	require.Contains(testInstance, output.String(), "Successful: 2/2")
	require.Contains(testInstance, output.String(), "Mass publish complete!")
}

func TestRunIsolatesPerTagUploadFailures(testInstance *testing.T) {
	repositoryDirectory := initializeTaggedRepository(testInstance, "v1.0.0", "v2.0.0", "v3.0.0")

	uploadedVersions := []string{}
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method == http.MethodGet {
			writer.WriteHeader(http.StatusNotFound)
			return
		}
		require.NoError(testInstance, request.ParseMultipartForm(8<<20))
		uploadedVersion := request.FormValue("version")
		if uploadedVersion == "2.0.0" {
			writer.WriteHeader(http.StatusInternalServerError)
			return
		}
		uploadedVersions = append(uploadedVersions, uploadedVersion)
		writer.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	output := &bytes.Buffer{}
	prompter := &scriptedPrompter{responses: []bool{true, true}}
	service := newBatchService(testInstance, prompter, output)

	summary, runError := service.Run(context.Background(), batchOptions(repositoryDirectory, server.URL, testInstance.TempDir()))
	require.NoError(testInstance, runError)
	require.False(testInstance, summary.Aborted)

	require.Equal(testInstance, 2, summary.SucceededCount())
	require.Equal(testInstance, []string{"v2.0.0"}, summary.FailedTagNames())
	require.Equal(testInstance, []string{"1.0.0", "3.0.0"}, uploadedVersions)
	require.Contains(testInstance, output.String(), "Successful: 2/3")
	require.Contains(testInstance, output.String(), "Failed tags: v2.0.0")
}

func TestRunUsesTemporaryManifestDirectoryWhenUnconfigured(testInstance *testing.T) {
	repositoryDirectory := initializeTaggedRepository(testInstance, "v1.0.0")

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method == http.MethodGet {
			writer.WriteHeader(http.StatusNotFound)
			return
		}
		writer.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	output := &bytes.Buffer{}
	prompter := &scriptedPrompter{responses: []bool{true, true}}
	service := newBatchService(testInstance, prompter, output)

	options := batchOptions(repositoryDirectory, server.URL, "")
	summary, runError := service.Run(context.Background(), options)
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 1, summary.SucceededCount())
	require.Contains(testInstance, output.String(), "Cleaning up temporary manifest directory")

	cleanupLine := ""
	for _, outputLine := range strings.Split(output.String(), "\n") {
		if strings.HasPrefix(outputLine, "Cleaning up temporary manifest directory: ") {
			cleanupLine = strings.TrimPrefix(outputLine, "Cleaning up temporary manifest directory: ")
		}
	}
	require.NotEmpty(testInstance, cleanupLine)
	require.NoDirExists(testInstance, cleanupLine)
}

func TestSummaryAccounting(testInstance *testing.T) {
	summary := masspublish.Summary{Results: []masspublish.TagResult{
		{TagName: "v1.0.0"},
		{TagName: "v2.0.0", Err: context.DeadlineExceeded},
		{TagName: "v3.0.0"},
	}}

	require.Equal(testInstance, 2, summary.SucceededCount())
	require.Equal(testInstance, []string{"v2.0.0"}, summary.FailedTagNames())
}
