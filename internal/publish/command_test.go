package publish

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
	require.NotNil(t, command.Flags().Lookup(subfolderFlagNameConstant))
	require.NotNil(t, command.Flags().Lookup(modeFlagNameConstant))
	require.NotNil(t, command.Flags().Lookup(overwriteFlagNameConstant))
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

func TestBuildOptionsMergesConfigurationAndFlags(t *testing.T) {
	builder := CommandBuilder{
		ConfigurationProvider: func() CommandConfiguration {
			return CommandConfiguration{
				Subfolder:      "mod",
				ReleaseType:    "beta",
				ProjectSlug:    "configured-slug",
				APIURL:         "https://hub.example.com/api",
				StripTagPrefix: true,
			}
		},
	}
	command, err := builder.Build()
	require.NoError(t, err)

	require.NoError(t, command.Flags().Set(releaseTypeFlagNameConstant, "alpha"))
	require.NoError(t, command.Flags().Set(tagsFlagNameConstant, "content, graphics,,"))
	require.NoError(t, command.Flags().Set(tagFlagNameConstant, "v1.2.3"))

	options, optionsError := builder.buildOptions(command, "  /srv/repos/mod  ")
	require.NoError(t, optionsError)

	require.Equal(t, "/srv/repos/mod", options.Input)
	require.Equal(t, "mod", options.Subfolder)
	require.Equal(t, "alpha", string(options.ReleaseType))
	require.Equal(t, []string{"content", "graphics"}, options.Tags)
	require.Equal(t, "v1.2.3", options.TagName)
	require.Equal(t, "configured-slug", options.ProjectSlug)
	require.Equal(t, "https://hub.example.com/api", options.APIURL)
	require.Equal(t, ModeBoth, options.Mode)
	require.True(t, options.StripTagPrefix)
}

func TestBuildOptionsRejectsInvalidValues(t *testing.T) {
	builder := CommandBuilder{}
	command, err := builder.Build()
	require.NoError(t, err)

	require.NoError(t, command.Flags().Set(releaseTypeFlagNameConstant, "nightly"))
	_, releaseTypeError := builder.buildOptions(command, "/srv/repos/mod")
	require.Error(t, releaseTypeError)

	freshCommand, freshErr := builder.Build()
	require.NoError(t, freshErr)
	require.NoError(t, freshCommand.Flags().Set(modeFlagNameConstant, "sideways"))
	_, modeError := builder.buildOptions(freshCommand, "/srv/repos/mod")
	require.Error(t, modeError)
}

func TestSplitTagList(t *testing.T) {
	require.Empty(t, SplitTagList(""))
	require.Empty(t, SplitTagList(" , ,, "))
	require.Equal(t, []string{"a", "b"}, SplitTagList("a,b"))
	require.Equal(t, []string{"a", "b"}, SplitTagList(" a , b "))
}
