package manifest_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/gitrepo"
	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/manifest"
)

const (
	testResolverCaseMetadataWinsConstant        = "metadata_version_wins_over_tag"
	testResolverCaseMetadataNumericConstant     = "numeric_metadata_version"
	testResolverCaseMetadataSanitizedConstant   = "metadata_version_sanitized"
	testResolverCaseMalformedMetadataConstant   = "malformed_metadata_falls_through_to_tag"
	testResolverCaseTagStrippedConstant         = "tag_prefix_stripped"
	testResolverCaseTagKeptConstant             = "tag_prefix_kept_when_disabled"
	testResolverCaseBareTagSkippedConstant      = "bare_v_tag_skipped"
	testResolverCaseCommitDateFallbackConstant  = "commit_date_fallback"
	testResolverSubfolderConstant               = "mod"
	testResolverMetadataFileNameConstant        = "modinfo.json"
)

func writeMetadataFile(testInstance *testing.T, repositoryRoot string, subfolder string, contents string) {
	metadataDirectory := filepath.Join(repositoryRoot, subfolder)
	require.NoError(testInstance, os.MkdirAll(metadataDirectory, 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(metadataDirectory, testResolverMetadataFileNameConstant), []byte(contents), 0o644))
}

func TestResolveVersion(testInstance *testing.T) {
	committedTime := time.Date(2024, time.March, 5, 14, 7, 22, 0, time.UTC)
	headFacts := gitrepo.HeadFacts{CommitHash: "abc123", CommittedTime: committedTime}

	testCases := []struct {
		name            string
		metadataContent string
		headTags        []string
		stripTagPrefix  bool
		expectedVersion string
		expectedSource  manifest.VersionSource
	}{
		{
			name:            testResolverCaseMetadataWinsConstant,
			metadataContent: `{"version": "1.4.0"}`,
			headTags:        []string{"v9.9.9"},
			stripTagPrefix:  true,
			expectedVersion: "1.4.0",
			expectedSource:  manifest.VersionSourceMetadata,
		},
		{
			name:            testResolverCaseMetadataNumericConstant,
			metadataContent: `{"version": 2.5}`,
			stripTagPrefix:  true,
			expectedVersion: "2.5",
			expectedSource:  manifest.VersionSourceMetadata,
		},
		{
			name:            testResolverCaseMetadataSanitizedConstant,
			metadataContent: `{"version": "1.0 beta!"}`,
			stripTagPrefix:  true,
			expectedVersion: "1.0-beta-",
			expectedSource:  manifest.VersionSourceMetadata,
		},
		{
			name:            testResolverCaseMalformedMetadataConstant,
			metadataContent: `{not json`,
			headTags:        []string{"v3.2.1"},
			stripTagPrefix:  true,
			expectedVersion: "3.2.1",
			expectedSource:  manifest.VersionSourceTag,
		},
		{
			name:            testResolverCaseTagStrippedConstant,
			headTags:        []string{"v1.2.3"},
			stripTagPrefix:  true,
			expectedVersion: "1.2.3",
			expectedSource:  manifest.VersionSourceTag,
		},
		{
			name:            testResolverCaseTagKeptConstant,
			headTags:        []string{"v1.2.3"},
			stripTagPrefix:  false,
			expectedVersion: "v1.2.3",
			expectedSource:  manifest.VersionSourceTag,
		},
		{
			name:            testResolverCaseBareTagSkippedConstant,
			headTags:        []string{"v", "v2.0.0"},
			stripTagPrefix:  true,
			expectedVersion: "2.0.0",
			expectedSource:  manifest.VersionSourceTag,
		},
		{
			name:            testResolverCaseCommitDateFallbackConstant,
			stripTagPrefix:  true,
			expectedVersion: "2024.03.05.140722",
			expectedSource:  manifest.VersionSourceCommitDate,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			repositoryRoot := testInstance.TempDir()
			if len(testCase.metadataContent) > 0 {
				writeMetadataFile(testInstance, repositoryRoot, testResolverSubfolderConstant, testCase.metadataContent)
			}

			resolution := manifest.ResolveVersion(
				repositoryRoot,
				testResolverSubfolderConstant,
				headFacts,
				testCase.headTags,
				manifest.ResolverOptions{StripTagPrefix: testCase.stripTagPrefix},
			)

			require.Equal(testInstance, testCase.expectedVersion, resolution.Version)
			require.Equal(testInstance, testCase.expectedSource, resolution.Source)
		})
	}
}

func TestResolveVersionNormalizesCommitDateToUTC(testInstance *testing.T) {
	easternZone := time.FixedZone("eastern", -5*60*60)
	headFacts := gitrepo.HeadFacts{
		CommitHash:    "def456",
		CommittedTime: time.Date(2024, time.December, 31, 22, 30, 0, 0, easternZone),
	}

	resolution := manifest.ResolveVersion(testInstance.TempDir(), ".", headFacts, nil, manifest.DefaultResolverOptions())

	require.Equal(testInstance, "2025.01.01.033000", resolution.Version)
	require.Equal(testInstance, manifest.VersionSourceCommitDate, resolution.Source)
}

func TestSanitizeVersion(testInstance *testing.T) {
	testCases := []struct {
		name            string
		rawVersion      string
		expectedVersion string
	}{
		{name: "valid_version_untouched", rawVersion: "1.2.3-beta+build_4", expectedVersion: "1.2.3-beta+build_4"},
		{name: "spaces_replaced", rawVersion: "1.0 hotfix", expectedVersion: "1.0-hotfix"},
		{name: "unicode_replaced", rawVersion: "1.0é", expectedVersion: "1.0-"},
		{name: "slashes_replaced", rawVersion: "feature/1.0", expectedVersion: "feature-1.0"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedVersion, manifest.SanitizeVersion(testCase.rawVersion))
		})
	}
}
