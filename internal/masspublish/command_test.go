package masspublish

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCommandBuilds(t *testing.T) {
	builder := CommandBuilder{}
	command, err := builder.Build()
	require.NoError(t, err)
	require.IsType(t, &cobra.Command{}, command)
	require.Equal(t, commandUseConstant, strings.TrimSpace(command.Use))
	require.NotNil(t, command.Flags().Lookup(patternFlagNameConstant))
	require.NotNil(t, command.Flags().Lookup(manifestDirFlagNameConstant))
}

func TestCommandRequiresRepositoryArgument(t *testing.T) {
	builder := CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() CommandConfiguration { return CommandConfiguration{} },
	}
	command, err := builder.Build()
	require.NoError(t, err)
	command.SetOut(&strings.Builder{})

	require.Error(t, command.RunE(command, []string{}))
	require.Error(t, command.RunE(command, []string{"   "}))
}

func TestBuildOptionsValidatesRequiredFlags(t *testing.T) {
	testCases := []struct {
		name          string
		flagValues    map[string]string
		expectedError string
	}{
		{
			name:          "missing_pattern",
			flagValues:    map[string]string{projectSlugFlagNameConstant: "my-mod", apiURLFlagNameConstant: "https://hub.example.com"},
			expectedError: "tag pattern is required",
		},
		{
			name:          "missing_project_slug",
			flagValues:    map[string]string{patternFlagNameConstant: `^v\d`, apiURLFlagNameConstant: "https://hub.example.com"},
			expectedError: "project slug is required",
		},
		{
			name:          "missing_api_url",
			flagValues:    map[string]string{patternFlagNameConstant: `^v\d`, projectSlugFlagNameConstant: "my-mod"},
			expectedError: "api url is required",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			builder := CommandBuilder{}
			command, err := builder.Build()
			require.NoError(t, err)
			for flagName, flagValue := range testCase.flagValues {
				require.NoError(t, command.Flags().Set(flagName, flagValue))
			}

			_, optionsError := builder.buildOptions(command, "/srv/repos/mod")
			require.Error(t, optionsError)
			require.Contains(t, optionsError.Error(), testCase.expectedError)
		})
	}
}

func TestBuildOptionsMergesConfigurationAndFlags(t *testing.T) {
	builder := CommandBuilder{
		ConfigurationProvider: func() CommandConfiguration {
			return CommandConfiguration{
				Subfolder:      "mod",
				ReleaseType:    "beta",
				ProjectSlug:    "configured-slug",
				APIURL:         "https://hub.example.com/api",
				ManifestDir:    "manifests",
				StripTagPrefix: true,
			}
		},
	}
	command, err := builder.Build()
	require.NoError(t, err)

	require.NoError(t, command.Flags().Set(patternFlagNameConstant, `^v\d+`))
	require.NoError(t, command.Flags().Set(tagsFlagNameConstant, "content,graphics"))
	require.NoError(t, command.Flags().Set(overwriteFlagNameConstant, "true"))

	options, optionsError := builder.buildOptions(command, "/srv/repos/mod")
	require.NoError(t, optionsError)

	require.Equal(t, `^v\d+`, options.Pattern)
	require.Equal(t, "mod", options.Subfolder)
	require.Equal(t, "beta", string(options.ReleaseType))
	require.Equal(t, []string{"content", "graphics"}, options.Tags)
	require.Equal(t, "configured-slug", options.ProjectSlug)
	require.Equal(t, "https://hub.example.com/api", options.APIURL)
	require.Equal(t, "manifests", options.ManifestDirectory)
	require.True(t, options.Overwrite)
	require.True(t, options.StripTagPrefix)
}
