package masspublish

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/execshell"
	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/githubcli"
	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/manifest"
	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/publish"
)

const (
	commandUseConstant   = "mass-publish <repository>"
	commandShortConstant = "Publish every Git tag matching a pattern to the Hub01 shop"
	commandLongConstant  = "mass-publish matches repository tags against a regular expression, confirms the selection, generates one manifest per tag, offers them for review, and uploads each sequentially. Per-tag failures are reported in a final summary without stopping the batch."

	patternFlagNameConstant       = "pattern"
	patternFlagUsageConstant      = "Regular expression selecting the tags to publish"
	subfolderFlagNameConstant     = "subfolder"
	subfolderFlagUsageConstant    = "Project subfolder within the repository"
	releaseTypeFlagNameConstant   = "release-type"
	releaseTypeFlagUsageConstant  = "Release type (release, beta, or alpha)"
	tagsFlagNameConstant          = "tags"
	tagsFlagUsageConstant         = "Comma-separated labels attached to every version"
	githubTokenFlagNameConstant   = "github-token"
	githubTokenFlagUsageConstant  = "GitHub token for release metadata lookups (defaults to GITHUB_TOKEN)"
	manifestDirFlagNameConstant   = "manifest-dir"
	manifestDirFlagUsageConstant  = "Directory for generated manifests (defaults to a temporary directory)"
	projectSlugFlagNameConstant   = "project-slug"
	projectSlugFlagUsageConstant  = "Hub01 project slug"
	apiURLFlagNameConstant        = "api-url"
	apiURLFlagUsageConstant       = "Hub01 API base URL"
	apiTokenFlagNameConstant      = "api-token"
	apiTokenFlagUsageConstant     = "Hub01 API token (defaults to HUB01_API_TOKEN)"
	overwriteFlagNameConstant     = "overwrite"
	overwriteFlagUsageConstant    = "Overwrite existing versions"

	githubTokenEnvironmentNameConstant = "GITHUB_TOKEN"
	hubTokenEnvironmentNameConstant    = "HUB01_API_TOKEN"

	missingInputMessageConstant      = "repository path or URL is required"
	missingPatternMessageConstant    = "tag pattern is required"
	missingSlugMessageConstant       = "project slug is required"
	missingAPIURLMessageConstant     = "api url is required"
	failedTagsErrorTemplateConstant  = "%d tag(s) failed: %s"
	failedTagsSeparatorConstant      = ", "
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the mass-publish cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	ReleaseLookup         manifest.ReleaseLookup
	Prompter              ConfirmationPrompter
}

// Build constructs the cobra command for the batch publishing workflow.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortConstant,
		Long:  commandLongConstant,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(patternFlagNameConstant, "", patternFlagUsageConstant)
	command.Flags().String(subfolderFlagNameConstant, "", subfolderFlagUsageConstant)
	command.Flags().String(releaseTypeFlagNameConstant, "", releaseTypeFlagUsageConstant)
	command.Flags().String(tagsFlagNameConstant, "", tagsFlagUsageConstant)
	command.Flags().String(githubTokenFlagNameConstant, "", githubTokenFlagUsageConstant)
	command.Flags().String(manifestDirFlagNameConstant, "", manifestDirFlagUsageConstant)
	command.Flags().String(projectSlugFlagNameConstant, "", projectSlugFlagUsageConstant)
	command.Flags().String(apiURLFlagNameConstant, "", apiURLFlagUsageConstant)
	command.Flags().String(apiTokenFlagNameConstant, "", apiTokenFlagUsageConstant)
	command.Flags().Bool(overwriteFlagNameConstant, false, overwriteFlagUsageConstant)

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

	publisher, publisherError := publish.NewService(publish.ServiceDependencies{
		Logger:        logger,
		ReleaseLookup: releaseLookup,
		Output:        command.OutOrStdout(),
	})
	if publisherError != nil {
		return publisherError
	}

	prompter := builder.Prompter
	if prompter == nil {
		prompter = NewIOConfirmationPrompter(command.InOrStdin(), command.OutOrStdout())
	}

	service, serviceError := NewService(ServiceDependencies{
		Logger:    logger,
		Publisher: publisher,
		Prompter:  prompter,
		Output:    command.OutOrStdout(),
	})
	if serviceError != nil {
		return serviceError
	}

	summary, runError := service.Run(command.Context(), options)
	if runError != nil {
		return runError
	}
	if summary.Aborted {
		return nil
	}

	failedTags := summary.FailedTagNames()
	if len(failedTags) > 0 {
		return fmt.Errorf(failedTagsErrorTemplateConstant, len(failedTags), strings.Join(failedTags, failedTagsSeparatorConstant))
	}

	return nil
}

// buildOptions merges configuration defaults with flag values into batch options.
func (builder *CommandBuilder) buildOptions(command *cobra.Command, input string) (Options, error) {
	configuration := builder.resolveConfiguration()

	patternValue, _ := command.Flags().GetString(patternFlagNameConstant)
	patternValue = strings.TrimSpace(patternValue)
	if len(patternValue) == 0 {
		return Options{}, errors.New(missingPatternMessageConstant)
	}

	projectSlug := stringFlagOrDefault(command, projectSlugFlagNameConstant, configuration.ProjectSlug)
	if len(projectSlug) == 0 {
		return Options{}, errors.New(missingSlugMessageConstant)
	}

	apiURL := stringFlagOrDefault(command, apiURLFlagNameConstant, configuration.APIURL)
	if len(apiURL) == 0 {
		return Options{}, errors.New(missingAPIURLMessageConstant)
	}

	releaseTypeValue := stringFlagOrDefault(command, releaseTypeFlagNameConstant, configuration.ReleaseType)
	releaseType, releaseTypeError := manifest.ParseReleaseType(releaseTypeValue)
	if releaseTypeError != nil {
		return Options{}, releaseTypeError
	}

	githubToken := stringFlagOrDefault(command, githubTokenFlagNameConstant, configuration.GitHubToken)
	if len(githubToken) == 0 {
		githubToken = strings.TrimSpace(os.Getenv(githubTokenEnvironmentNameConstant))
	}

	apiToken := stringFlagOrDefault(command, apiTokenFlagNameConstant, configuration.APIToken)
	if len(apiToken) == 0 {
		apiToken = strings.TrimSpace(os.Getenv(hubTokenEnvironmentNameConstant))
	}

	tagsValue, _ := command.Flags().GetString(tagsFlagNameConstant)
	overwriteValue, _ := command.Flags().GetBool(overwriteFlagNameConstant)

	return Options{
		Input:             strings.TrimSpace(input),
		Pattern:           patternValue,
		Subfolder:         stringFlagOrDefault(command, subfolderFlagNameConstant, configuration.Subfolder),
		ReleaseType:       releaseType,
		Tags:              publish.SplitTagList(tagsValue),
		GitHubToken:       githubToken,
		ManifestDirectory: stringFlagOrDefault(command, manifestDirFlagNameConstant, configuration.ManifestDir),
		ProjectSlug:       projectSlug,
		APIURL:            apiURL,
		APIToken:          apiToken,
		Overwrite:         overwriteValue,
		StripTagPrefix:    configuration.StripTagPrefix,
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
