package hubclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/hubclient"
)

func writeTestArchive(testInstance *testing.T) string {
	archivePath := filepath.Join(testInstance.TempDir(), "release.zip")
	require.NoError(testInstance, os.WriteFile(archivePath, []byte("zip-bytes"), 0o644))
	return archivePath
}

func TestNewClientRequiresBaseURL(testInstance *testing.T) {
	_, constructionError := hubclient.NewClient("   ", "token")
	require.ErrorIs(testInstance, constructionError, hubclient.ErrBaseURLRequired)
}

func TestVersionExists(testInstance *testing.T) {
	testCases := []struct {
		name           string
		statusCode     int
		expectedExists bool
		expectError    bool
	}{
		{name: "existing_version", statusCode: http.StatusOK, expectedExists: true},
		{name: "absent_version", statusCode: http.StatusNotFound, expectedExists: false},
		{name: "server_failure", statusCode: http.StatusInternalServerError, expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var observedPath string
			var observedAuthorization string
			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				observedPath = request.URL.Path
				observedAuthorization = request.Header.Get("Authorization")
				writer.WriteHeader(testCase.statusCode)
			}))
			defer server.Close()

			client, constructionError := hubclient.NewClient(server.URL+"/", "secret-token")
			require.NoError(testInstance, constructionError)

			versionExists, existsError := client.VersionExists(context.Background(), "my-mod", "1.2.3")
			require.Equal(testInstance, "/projects/my-mod/versions/1.2.3", observedPath)
			require.Equal(testInstance, "Bearer secret-token", observedAuthorization)

			if testCase.expectError {
				require.Error(testInstance, existsError)
				apiFailure := hubclient.APIError{}
				require.ErrorAs(testInstance, existsError, &apiFailure)
				require.Equal(testInstance, testCase.statusCode, apiFailure.StatusCode)
				return
			}

			require.NoError(testInstance, existsError)
			require.Equal(testInstance, testCase.expectedExists, versionExists)
		})
	}
}

func TestCreateVersionUploadsMultipartPayload(testInstance *testing.T) {
	type receivedUpload struct {
		path        string
		fields      map[string]string
		tags        []string
		fileName    string
		fileContent string
	}

	var received receivedUpload
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		require.NoError(testInstance, request.ParseMultipartForm(1<<20))
		received.path = request.URL.Path
		received.fields = map[string]string{
			"name":         request.FormValue("name"),
			"version":      request.FormValue("version"),
			"release_type": request.FormValue("release_type"),
			"release_date": request.FormValue("release_date"),
			"changelog":    request.FormValue("changelog"),
		}
		received.tags = request.MultipartForm.Value["tags"]

		uploadedFile, fileHeader, fileError := request.FormFile("files")
		require.NoError(testInstance, fileError)
		defer func() { _ = uploadedFile.Close() }()
		fileBytes, readError := io.ReadAll(uploadedFile)
		require.NoError(testInstance, readError)
		received.fileName = fileHeader.Filename
		received.fileContent = string(fileBytes)

		writer.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, constructionError := hubclient.NewClient(server.URL, "secret-token")
	require.NoError(testInstance, constructionError)

	createError := client.CreateVersion(context.Background(), "my-mod", hubclient.CreateVersionRequest{
		Name:        "Example Mod 1.2.3",
		Version:     "1.2.3",
		ReleaseType: "release",
		ReleaseDate: "2024-03-05T14:07:22Z",
		Changelog:   "Initial release",
		Tags:        []string{"content", "graphics"},
		ArchivePath: writeTestArchive(testInstance),
	})
	require.NoError(testInstance, createError)

	require.Equal(testInstance, "/projects/my-mod/versions", received.path)
	require.Equal(testInstance, "Example Mod 1.2.3", received.fields["name"])
	require.Equal(testInstance, "1.2.3", received.fields["version"])
	require.Equal(testInstance, "release", received.fields["release_type"])
	require.Equal(testInstance, "2024-03-05T14:07:22Z", received.fields["release_date"])
	require.Equal(testInstance, "Initial release", received.fields["changelog"])
	require.Equal(testInstance, []string{"content", "graphics"}, received.tags)
	require.Equal(testInstance, "release.zip", received.fileName)
	require.Equal(testInstance, "zip-bytes", received.fileContent)
}

func TestCreateVersionReportsConflictAsVersionExists(testInstance *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusConflict)
		_, _ = writer.Write([]byte("version 1.2.3 already uploaded"))
	}))
	defer server.Close()

	client, constructionError := hubclient.NewClient(server.URL, "secret-token")
	require.NoError(testInstance, constructionError)

	createError := client.CreateVersion(context.Background(), "my-mod", hubclient.CreateVersionRequest{
		Version:     "1.2.3",
		ArchivePath: writeTestArchive(testInstance),
	})
	require.ErrorIs(testInstance, createError, hubclient.ErrVersionExists)
	require.Contains(testInstance, createError.Error(), "version 1.2.3 already uploaded")
}

func TestCreateVersionReportsServerFailures(testInstance *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadRequest)
		_, _ = writer.Write([]byte("missing release_type"))
	}))
	defer server.Close()

	client, constructionError := hubclient.NewClient(server.URL, "secret-token")
	require.NoError(testInstance, constructionError)

	createError := client.CreateVersion(context.Background(), "my-mod", hubclient.CreateVersionRequest{
		Version:     "1.2.3",
		ArchivePath: writeTestArchive(testInstance),
	})

	apiFailure := hubclient.APIError{}
	require.ErrorAs(testInstance, createError, &apiFailure)
	require.Equal(testInstance, http.StatusBadRequest, apiFailure.StatusCode)
	require.Equal(testInstance, "missing release_type", apiFailure.Message)
}

func TestCreateVersionRejectsMissingArchive(testInstance *testing.T) {
	client, constructionError := hubclient.NewClient("http://localhost:1", "secret-token")
	require.NoError(testInstance, constructionError)

	createError := client.CreateVersion(context.Background(), "my-mod", hubclient.CreateVersionRequest{
		Version:     "1.2.3",
		ArchivePath: filepath.Join(testInstance.TempDir(), "absent.zip"),
	})
	require.Error(testInstance, createError)
}
