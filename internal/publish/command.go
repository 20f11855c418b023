package publish

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/execshell"
	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/githubcli"
	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/manifest"
)

const (
	commandUseConstant   = "publish <repository>"
	commandNameConstant  = "publish"
	commandShortConstant = "Publish one release of a mod repository to the Hub01 shop"
	commandLongConstant  = "publish resolves a version from the repository state (modinfo.json, tag, or commit date), writes a release manifest, zips the project subfolder, and uploads it to the Hub01 shop API."

	subfolderFlagNameConstant     = "subfolder"
	subfolderFlagUsageConstant    = "Project subfolder within the repository"
	commitFlagNameConstant        = "commit"
	commitFlagUsageConstant       = "Commit hash to check out before publishing"
	tagFlagNameConstant           = "tag"
	tagFlagUsageConstant          = "Tag to check out before publishing"
	releaseTypeFlagNameConstant   = "release-type"
	releaseTypeFlagUsageConstant  = "Release type (release, beta, or alpha)"
	tagsFlagNameConstant          = "tags"
	tagsFlagUsageConstant         = "Comma-separated labels attached to the release"
	githubTokenFlagNameConstant   = "github-token"
	githubTokenFlagUsageConstant  = "GitHub token for release metadata lookups (defaults to GITHUB_TOKEN)"
	manifestPathFlagNameConstant  = "manifest-path"
	manifestPathFlagUsageConstant = "Output path for the manifest (file or directory)"
	projectSlugFlagNameConstant   = "project-slug"
	projectSlugFlagUsageConstant  = "Hub01 project slug"
	apiURLFlagNameConstant        = "api-url"
	apiURLFlagUsageConstant       = "Hub01 API base URL"
	apiTokenFlagNameConstant      = "api-token"
	apiTokenFlagUsageConstant     = "Hub01 API token (defaults to HUB01_API_TOKEN)"
	overwriteFlagNameConstant     = "overwrite"
	overwriteFlagUsageConstant    = "Overwrite an existing version"
	modeFlagNameConstant          = "mode"
	modeFlagUsageConstant         = "Action to perform (manifest, upload, or both)"

	githubTokenEnvironmentNameConstant = "GITHUB_TOKEN"
	hubTokenEnvironmentNameConstant    = "HUB01_API_TOKEN"

	missingInputMessageConstant = "repository path or URL is required"
	tagListSeparatorConstant    = ","
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the publish cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	ReleaseLookup         manifest.ReleaseLookup
}

// Build constructs the cobra command for the publish workflow.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortConstant,
		Long:  commandLongConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(subfolderFlagNameConstant, "", subfolderFlagUsageConstant)
	command.Flags().String(commitFlagNameConstant, "", commitFlagUsageConstant)
	command.Flags().String(tagFlagNameConstant, "", tagFlagUsageConstant)
	command.Flags().String(releaseTypeFlagNameConstant, "", releaseTypeFlagUsageConstant)
	command.Flags().String(tagsFlagNameConstant, "", tagsFlagUsageConstant)
	command.Flags().String(githubTokenFlagNameConstant, "", githubTokenFlagUsageConstant)
	command.Flags().String(manifestPathFlagNameConstant, "", manifestPathFlagUsageConstant)
	command.Flags().String(projectSlugFlagNameConstant, "", projectSlugFlagUsageConstant)
	command.Flags().String(apiURLFlagNameConstant, "", apiURLFlagUsageConstant)
	command.Flags().String(apiTokenFlagNameConstant, "", apiTokenFlagUsageConstant)
	command.Flags().Bool(overwriteFlagNameConstant, false, overwriteFlagUsageConstant)
	command.Flags().String(modeFlagNameConstant, modeBothStringConstant, modeFlagUsageConstant)
	command.MarkFlagsMutuallyExclusive(commitFlagNameConstant, tagFlagNameConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 || len(strings.TrimSpace(arguments[0])) == 0 {
		_ = command.Help()
		return errors.New(missingInputMessageConstant)
	}

	options, optionsError := builder.buildOptions(command, arguments[0])
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()

	releaseLookup, lookupError := builder.resolveReleaseLookup(logger, options.GitHubToken)
	if lookupError != nil {
		return lookupError
	}

	service, serviceError := NewService(ServiceDependencies{
		Logger:        logger,
		ReleaseLookup: releaseLookup,
		Output:        command.OutOrStdout(),
	})
	if serviceError != nil {
		return serviceError
	}

	_, runError := service.Run(command.Context(), options)
	return runError
}

// buildOptions merges configuration defaults with flag values into publish options.
func (builder *CommandBuilder) buildOptions(command *cobra.Command, input string) (Options, error) {
	configuration := builder.resolveConfiguration()

	subfolder := stringFlagOrDefault(command, subfolderFlagNameConstant, configuration.Subfolder)
	releaseTypeValue := stringFlagOrDefault(command, releaseTypeFlagNameConstant, configuration.ReleaseType)
	releaseType, releaseTypeError := manifest.ParseReleaseType(releaseTypeValue)
	if releaseTypeError != nil {
		return Options{}, releaseTypeError
	}

	modeValue, _ := command.Flags().GetString(modeFlagNameConstant)
	mode, modeError := ParseMode(modeValue)
	if modeError != nil {
		return Options{}, modeError
	}

	githubToken := stringFlagOrDefault(command, githubTokenFlagNameConstant, configuration.GitHubToken)
	if len(githubToken) == 0 {
		githubToken = strings.TrimSpace(os.Getenv(githubTokenEnvironmentNameConstant))
	}

	apiToken := stringFlagOrDefault(command, apiTokenFlagNameConstant, configuration.APIToken)
	if len(apiToken) == 0 {
		apiToken = strings.TrimSpace(os.Getenv(hubTokenEnvironmentNameConstant))
	}

	commitValue, _ := command.Flags().GetString(commitFlagNameConstant)
	tagValue, _ := command.Flags().GetString(tagFlagNameConstant)
	tagsValue, _ := command.Flags().GetString(tagsFlagNameConstant)
	manifestPathValue, _ := command.Flags().GetString(manifestPathFlagNameConstant)
	overwriteValue, _ := command.Flags().GetBool(overwriteFlagNameConstant)

	return Options{
		Input:          strings.TrimSpace(input),
		Subfolder:      subfolder,
		CommitHash:     strings.TrimSpace(commitValue),
		TagName:        strings.TrimSpace(tagValue),
		ReleaseType:    releaseType,
		Tags:           SplitTagList(tagsValue),
		ManifestPath:   strings.TrimSpace(manifestPathValue),
		ProjectSlug:    stringFlagOrDefault(command, projectSlugFlagNameConstant, configuration.ProjectSlug),
		APIURL:         stringFlagOrDefault(command, apiURLFlagNameConstant, configuration.APIURL),
		APIToken:       apiToken,
		GitHubToken:    githubToken,
		Overwrite:      overwriteValue,
		Mode:           mode,
		StripTagPrefix: configuration.StripTagPrefix,
	}, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// resolveReleaseLookup wires the GitHub CLI lookup unless one was injected.
func (builder *CommandBuilder) resolveReleaseLookup(logger *zap.Logger, githubToken string) (manifest.ReleaseLookup, error) {
	if builder.ReleaseLookup != nil {
		return builder.ReleaseLookup, nil
	}

	executor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if executorError != nil {
		return nil, executorError
	}

	return githubcli.NewClient(executor, githubToken)
}

// SplitTagList parses a comma-separated tag list, dropping empty entries.
func SplitTagList(rawTagList string) []string {
	tagValues := []string{}
	for _, tagCandidate := range strings.Split(rawTagList, tagListSeparatorConstant) {
		trimmedTag := strings.TrimSpace(tagCandidate)
		if len(trimmedTag) > 0 {
			tagValues = append(tagValues, trimmedTag)
		}
	}
	return tagValues
}

func stringFlagOrDefault(command *cobra.Command, flagName string, defaultValue string) string {
	if command.Flags().Changed(flagName) {
		flagValue, _ := command.Flags().GetString(flagName)
		trimmedValue := strings.TrimSpace(flagValue)
		if len(trimmedValue) > 0 {
			return trimmedValue
		}
	}
	return defaultValue
}
