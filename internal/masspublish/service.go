package masspublish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/gitrepo"
	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/manifest"
	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/publish"
)

const (
	manifestFileNameConstant               = "manifest.json"
	tagPathSeparatorReplacementConstant    = "_"
	temporaryManifestDirectoryTemplate     = "hub01-masspublish-%s"
	invalidPatternTemplateConstant         = "invalid tag pattern: %w"
	manifestDirectoryTemplateConstant      = "unable to create manifest directory %s: %w"
	noManifestsGeneratedMessageConstant    = "no manifests were generated"
	loggerNilServiceMessageConstant        = "mass publish service requires a logger"
	prompterNilServiceMessageConstant      = "mass publish service requires a confirmation prompter"
	publisherNilServiceMessageConstant     = "mass publish service requires a publish service"
	cloningMessageTemplateConstant         = "Cloning %s...\n"
	scanningTagsMessageTemplateConstant    = "Scanning tags with pattern: %s\n"
	noTagsMatchedMessageConstant           = "No tags matched the pattern.\n"
	matchedTagsHeaderTemplateConstant      = "Found %d matching tag(s):\n"
	matchedTagLineTemplateConstant         = "%3d. %s\n"
	tagsConfirmPromptTemplateConstant      = "Proceed with publishing these %d tag(s)? [y/N]: "
	generatingManifestsTemplateConstant    = "Generating manifests in %s...\n"
	processingTagMessageTemplateConstant   = "\nProcessing tag: %s\n"
	tagFailureMessageTemplateConstant      = "Error processing %s: %v\nSkipping tag %s\n"
	generatedManifestsTemplateConstant     = "Generated %d manifest(s)\n"
	reviewHeaderConstant                   = "\nMANIFEST REVIEW\n"
	reviewEntryHeaderTemplateConstant      = "\nTag: %s\nFile: %s\n"
	reviewEntryReadErrorTemplateConstant   = "Error reading manifest: %v\n"
	uploadConfirmPromptTemplateConstant    = "Proceed with uploading %d version(s)? [y/N]: "
	uploadingBatchMessageTemplateConstant  = "\nUploading %d version(s)...\n"
	uploadingTagMessageTemplateConstant    = "\nUploading tag: %s\n"
	uploadFailureMessageTemplateConstant   = "Error uploading %s: %v\n"
	summaryMessageTemplateConstant         = "\nUpload Summary:\n  Successful: %d/%d\n"
	summaryFailedTagsTemplateConstant      = "  Failed tags: %s\n"
	abortedByUserMessageConstant           = "Aborted by user.\n"
	failedTagListSeparatorConstant         = ", "
	batchCompleteMessageConstant           = "\nMass publish complete!\n"
	cleanupManifestDirectoryTemplateConstant = "Cleaning up temporary manifest directory: %s\n"
)

// TagResult records the outcome of one tag in the batch.
type TagResult struct {
	TagName      string
	ManifestPath string
	Err          error
}

// Summary aggregates per-tag results of a batch run.
type Summary struct {
	Results []TagResult
	Aborted bool
}

// SucceededCount reports how many tags completed without error.
func (summary Summary) SucceededCount() int {
	succeeded := 0
	for _, tagResult := range summary.Results {
		if tagResult.Err == nil {
			succeeded++
		}
	}
	return succeeded
}

// FailedTagNames lists the tags that recorded an error, in processing order.
func (summary Summary) FailedTagNames() []string {
	failedTags := []string{}
	for _, tagResult := range summary.Results {
		if tagResult.Err != nil {
			failedTags = append(failedTags, tagResult.TagName)
		}
	}
	return failedTags
}

// Options configure a batch publishing run.
type Options struct {
	Input             string
	Pattern           string
	Subfolder         string
	ReleaseType       manifest.ReleaseType
	Tags              []string
	GitHubToken       string
	ManifestDirectory string
	ProjectSlug       string
	APIURL            string
	APIToken          string
	Overwrite         bool
	StripTagPrefix    bool
}

// ServiceDependencies carries the collaborators required by the batch service.
type ServiceDependencies struct {
	Logger    *zap.Logger
	Publisher *publish.Service
	Prompter  ConfirmationPrompter
	Output    io.Writer
}

// Service drives the batch pipeline: tag selection, confirmation, manifest
// generation, review, and sequential uploads with per-tag failure isolation.
type Service struct {
	logger    *zap.Logger
	publisher *publish.Service
	prompter  ConfirmationPrompter
	output    io.Writer
}

// NewService validates dependencies and constructs a batch service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Logger == nil {
		return nil, errors.New(loggerNilServiceMessageConstant)
	}
	if dependencies.Publisher == nil {
		return nil, errors.New(publisherNilServiceMessageConstant)
	}
	if dependencies.Prompter == nil {
		return nil, errors.New(prompterNilServiceMessageConstant)
	}
	output := dependencies.Output
	if output == nil {
		output = io.Discard
	}
	return &Service{
		logger:    dependencies.Logger,
		publisher: dependencies.Publisher,
		prompter:  dependencies.Prompter,
		output:    output,
	}, nil
}

// Run executes the batch pipeline and returns a per-tag summary.
//
// Declining either confirmation aborts the remaining batch without error;
// no uploads have occurred at that point. Per-tag failures are recorded in
// the summary and never stop processing of subsequent tags.
func (service *Service) Run(executionContext context.Context, options Options) (Summary, error) {
	tagPattern, patternError := regexp.Compile(options.Pattern)
	if patternError != nil {
		return Summary{}, fmt.Errorf(invalidPatternTemplateConstant, patternError)
	}

	if gitrepo.IsRemoteInput(options.Input) {
		fmt.Fprintf(service.output, cloningMessageTemplateConstant, strings.TrimSpace(options.Input))
	}
	repository, setupError := gitrepo.Setup(executionContext, options.Input)
	if setupError != nil {
		return Summary{}, setupError
	}
	defer func() { _ = repository.Cleanup() }()

	fmt.Fprintf(service.output, scanningTagsMessageTemplateConstant, options.Pattern)
	matchingTags, tagsError := repository.MatchingTagNames(tagPattern)
	if tagsError != nil {
		return Summary{}, tagsError
	}

	if len(matchingTags) == 0 {
		fmt.Fprint(service.output, noTagsMatchedMessageConstant)
		return Summary{Aborted: true}, nil
	}

	fmt.Fprintf(service.output, matchedTagsHeaderTemplateConstant, len(matchingTags))
	for tagIndex, tagName := range matchingTags {
		fmt.Fprintf(service.output, matchedTagLineTemplateConstant, tagIndex+1, tagName)
	}

	tagsConfirmed, confirmError := service.prompter.Confirm(fmt.Sprintf(tagsConfirmPromptTemplateConstant, len(matchingTags)))
	if confirmError != nil {
		return Summary{}, confirmError
	}
	if !tagsConfirmed {
		fmt.Fprint(service.output, abortedByUserMessageConstant)
		return Summary{Aborted: true}, nil
	}

	manifestDirectory, temporaryDirectory, directoryError := service.resolveManifestDirectory(options.ManifestDirectory)
	if directoryError != nil {
		return Summary{}, directoryError
	}
	if len(temporaryDirectory) > 0 {
		defer func() {
			fmt.Fprintf(service.output, cleanupManifestDirectoryTemplateConstant, temporaryDirectory)
			_ = os.RemoveAll(temporaryDirectory)
		}()
	}

	summary := service.generateManifests(executionContext, repository, matchingTags, manifestDirectory, options)

	generatedResults := []TagResult{}
	for _, tagResult := range summary.Results {
		if tagResult.Err == nil {
			generatedResults = append(generatedResults, tagResult)
		}
	}
	if len(generatedResults) == 0 {
		return summary, errors.New(noManifestsGeneratedMessageConstant)
	}

	service.renderManifestsForReview(generatedResults)

	uploadConfirmed, uploadConfirmError := service.prompter.Confirm(fmt.Sprintf(uploadConfirmPromptTemplateConstant, len(generatedResults)))
	if uploadConfirmError != nil {
		return summary, uploadConfirmError
	}
	if !uploadConfirmed {
		fmt.Fprint(service.output, abortedByUserMessageConstant)
		summary.Aborted = true
		return summary, nil
	}

	service.uploadManifests(executionContext, repository, generatedResults, &summary, options)

	fmt.Fprintf(service.output, summaryMessageTemplateConstant, summary.SucceededCount(), len(summary.Results))
	failedTags := summary.FailedTagNames()
	if len(failedTags) > 0 {
		fmt.Fprintf(service.output, summaryFailedTagsTemplateConstant, strings.Join(failedTags, failedTagListSeparatorConstant))
	}
	fmt.Fprint(service.output, batchCompleteMessageConstant)

	return summary, nil
}

// resolveManifestDirectory returns the directory for generated manifests and,
// when one had to be created under the system temp root, its cleanup path.
func (service *Service) resolveManifestDirectory(configuredDirectory string) (string, string, error) {
	if len(configuredDirectory) > 0 {
		absoluteDirectory, absoluteError := filepath.Abs(configuredDirectory)
		if absoluteError != nil {
			return "", "", fmt.Errorf(manifestDirectoryTemplateConstant, configuredDirectory, absoluteError)
		}
		if directoryError := os.MkdirAll(absoluteDirectory, 0o755); directoryError != nil {
			return "", "", fmt.Errorf(manifestDirectoryTemplateConstant, absoluteDirectory, directoryError)
		}
		return absoluteDirectory, "", nil
	}

	temporaryDirectory := filepath.Join(os.TempDir(), fmt.Sprintf(temporaryManifestDirectoryTemplate, uuid.NewString()))
	if directoryError := os.MkdirAll(temporaryDirectory, 0o755); directoryError != nil {
		return "", "", fmt.Errorf(manifestDirectoryTemplateConstant, temporaryDirectory, directoryError)
	}
	return temporaryDirectory, temporaryDirectory, nil
}

// generateManifests produces one manifest per tag, isolating per-tag failures.
func (service *Service) generateManifests(executionContext context.Context, repository *gitrepo.Repository, matchingTags []string, manifestDirectory string, options Options) Summary {
	fmt.Fprintf(service.output, generatingManifestsTemplateConstant, manifestDirectory)

	summary := Summary{}
	for _, tagName := range matchingTags {
		fmt.Fprintf(service.output, processingTagMessageTemplateConstant, tagName)

		tagDirectoryName := strings.ReplaceAll(tagName, "/", tagPathSeparatorReplacementConstant)
		manifestPath := filepath.Join(manifestDirectory, tagDirectoryName, manifestFileNameConstant)

		_, publishError := service.publisher.RunWithRepository(executionContext, repository, publish.Options{
			Input:          options.Input,
			Subfolder:      options.Subfolder,
			TagName:        tagName,
			ReleaseType:    options.ReleaseType,
			Tags:           options.Tags,
			ManifestPath:   manifestPath,
			GitHubToken:    options.GitHubToken,
			Mode:           publish.ModeManifest,
			StripTagPrefix: options.StripTagPrefix,
		})
		if publishError != nil {
			fmt.Fprintf(service.output, tagFailureMessageTemplateConstant, tagName, publishError, tagName)
		}

		summary.Results = append(summary.Results, TagResult{TagName: tagName, ManifestPath: manifestPath, Err: publishError})
	}

	fmt.Fprintf(service.output, generatedManifestsTemplateConstant, summary.SucceededCount())
	return summary
}

// renderManifestsForReview prints every generated manifest so the operator can inspect it before uploading.
func (service *Service) renderManifestsForReview(generatedResults []TagResult) {
	fmt.Fprint(service.output, reviewHeaderConstant)
	for _, tagResult := range generatedResults {
		fmt.Fprintf(service.output, reviewEntryHeaderTemplateConstant, tagResult.TagName, tagResult.ManifestPath)

		reviewedManifest, loadError := manifest.Load(tagResult.ManifestPath)
		if loadError != nil {
			fmt.Fprintf(service.output, reviewEntryReadErrorTemplateConstant, loadError)
			continue
		}
		serializedManifest, serializeError := reviewedManifest.Serialize()
		if serializeError != nil {
			fmt.Fprintf(service.output, reviewEntryReadErrorTemplateConstant, serializeError)
			continue
		}
		_, _ = service.output.Write(serializedManifest)
	}
}

// uploadManifests ships each generated manifest sequentially, recording per-tag outcomes in the summary.
func (service *Service) uploadManifests(executionContext context.Context, repository *gitrepo.Repository, generatedResults []TagResult, summary *Summary, options Options) {
	fmt.Fprintf(service.output, uploadingBatchMessageTemplateConstant, len(generatedResults))

	for _, tagResult := range generatedResults {
		fmt.Fprintf(service.output, uploadingTagMessageTemplateConstant, tagResult.TagName)

		_, uploadError := service.publisher.RunWithRepository(executionContext, repository, publish.Options{
			Input:        options.Input,
			Subfolder:    options.Subfolder,
			ManifestPath: tagResult.ManifestPath,
			ProjectSlug:  options.ProjectSlug,
			APIURL:       options.APIURL,
			APIToken:     options.APIToken,
			Overwrite:    options.Overwrite,
			Mode:         publish.ModeUpload,
		})
		if uploadError != nil {
			fmt.Fprintf(service.output, uploadFailureMessageTemplateConstant, tagResult.TagName, uploadError)
			service.recordResult(summary, tagResult.TagName, uploadError)
		}
	}
}

// recordResult attaches an upload error to the matching tag entry in the summary.
func (service *Service) recordResult(summary *Summary, tagName string, uploadError error) {
	for resultIndex := range summary.Results {
		if summary.Results[resultIndex].TagName == tagName {
			summary.Results[resultIndex].Err = uploadError
			return
		}
	}
	summary.Results = append(summary.Results, TagResult{TagName: tagName, Err: uploadError})
}
