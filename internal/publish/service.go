package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/archive"
	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/gitrepo"
	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/hubclient"
	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/manifest"
)

const (
	modeManifestStringConstant = "manifest"
	modeUploadStringConstant   = "upload"
	modeBothStringConstant     = "both"

	unsupportedModeTemplateConstant         = "unsupported mode: %s"
	projectDirectoryMissingTemplateConstant = "project directory not found: %s"
	manifestMissingTemplateConstant         = "manifest not found at %s"
	versionConflictTemplateConstant         = "version %s already exists for project %s (use --overwrite to force)"
	uploadStagingErrorTemplateConstant      = "unable to create upload staging directory: %w"

	cloningMessageTemplateConstant          = "Cloning %s...\n"
	checkingOutMessageTemplateConstant      = "Checking out %s...\n"
	detectedVersionMessageTemplateConstant  = "Detected version: %s\n"
	manifestWrittenMessageTemplateConstant  = "Manifest written to %s\n"
	packagingMessageTemplateConstant        = "Zipping %s to %s...\n"
	uploadingMessageTemplateConstant        = "Uploading %s version %s...\n"
	uploadSucceededMessageConstant          = "Upload successful!\n"
	uploadSkippedMessageConstant            = "Upload skipped: missing project slug, API URL, or API token\n"
	overwritingVersionMessageTemplate       = "Version %s exists. Overwriting...\n"
	uploadStagingDirectoryTemplateConstant  = "hub01-upload-%s"
	loggerNilServiceMessageConstant         = "publish service requires a logger"

	versionResolvedLogMessageConstant = "version resolved"
	logFieldVersionConstant           = "version"
	logFieldVersionSourceConstant     = "version_source"
	logFieldSourceRefConstant         = "source_ref"
)

// Mode selects which half of the publishing pipeline runs.
type Mode string

// Supported modes.
const (
	ModeManifest Mode = Mode(modeManifestStringConstant)
	ModeUpload   Mode = Mode(modeUploadStringConstant)
	ModeBoth     Mode = Mode(modeBothStringConstant)
)

// ParseMode validates a textual mode value.
func ParseMode(candidate string) (Mode, error) {
	normalized := Mode(strings.ToLower(strings.TrimSpace(candidate)))
	switch normalized {
	case ModeManifest, ModeUpload, ModeBoth:
		return normalized, nil
	default:
		return "", fmt.Errorf(unsupportedModeTemplateConstant, candidate)
	}
}

func (mode Mode) includesManifest() bool {
	return mode == ModeManifest || mode == ModeBoth
}

func (mode Mode) includesUpload() bool {
	return mode == ModeUpload || mode == ModeBoth
}

// Options configure a single publish operation.
type Options struct {
	Input          string
	Subfolder      string
	CommitHash     string
	TagName        string
	ReleaseType    manifest.ReleaseType
	Tags           []string
	ManifestPath   string
	ProjectSlug    string
	APIURL         string
	APIToken       string
	GitHubToken    string
	Overwrite      bool
	Mode           Mode
	StripTagPrefix bool
}

// Result summarizes a completed publish operation.
type Result struct {
	Version      string
	ManifestPath string
	Uploaded     bool
}

// ServiceDependencies carries the collaborators required by the publish service.
type ServiceDependencies struct {
	Logger        *zap.Logger
	ReleaseLookup manifest.ReleaseLookup
	Output        io.Writer
}

// Service drives the publish pipeline: repository setup, version resolution,
// manifest generation, payload packaging, and upload.
type Service struct {
	logger        *zap.Logger
	releaseLookup manifest.ReleaseLookup
	output        io.Writer
}

// NewService validates dependencies and constructs a publish service.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Logger == nil {
		return nil, errors.New(loggerNilServiceMessageConstant)
	}
	output := dependencies.Output
	if output == nil {
		output = io.Discard
	}
	return &Service{
		logger:        dependencies.Logger,
		releaseLookup: dependencies.ReleaseLookup,
		output:        output,
	}, nil
}

// Run executes one full publish operation, owning the repository handle for its duration.
func (service *Service) Run(executionContext context.Context, options Options) (Result, error) {
	if gitrepo.IsRemoteInput(options.Input) {
		fmt.Fprintf(service.output, cloningMessageTemplateConstant, strings.TrimSpace(options.Input))
	}

	repository, setupError := gitrepo.Setup(executionContext, options.Input)
	if setupError != nil {
		return Result{}, setupError
	}
	defer func() { _ = repository.Cleanup() }()

	return service.RunWithRepository(executionContext, repository, options)
}

// RunWithRepository executes a publish operation against an externally owned repository handle.
func (service *Service) RunWithRepository(executionContext context.Context, repository *gitrepo.Repository, options Options) (Result, error) {
	projectDirectory := filepath.Join(repository.RootPath(), options.Subfolder)
	if _, statError := os.Stat(projectDirectory); statError != nil {
		return Result{}, fmt.Errorf(projectDirectoryMissingTemplateConstant, projectDirectory)
	}

	checkoutReference := firstNonEmpty(options.CommitHash, options.TagName)
	if len(checkoutReference) > 0 {
		fmt.Fprintf(service.output, checkingOutMessageTemplateConstant, checkoutReference)
		if checkoutError := repository.CheckoutRevision(checkoutReference); checkoutError != nil {
			return Result{}, checkoutError
		}
	}

	operationResult := Result{}

	var releaseManifest manifest.Manifest
	manifestAvailable := false

	if options.Mode.includesManifest() {
		builtManifest, manifestPath, buildError := service.generateManifest(executionContext, repository, options)
		if buildError != nil {
			return Result{}, buildError
		}
		releaseManifest = builtManifest
		manifestAvailable = true
		operationResult.Version = builtManifest.Version
		operationResult.ManifestPath = manifestPath
	}

	if options.Mode.includesUpload() {
		if !manifestAvailable {
			manifestPath := manifest.ResolveOutputPath(options.ManifestPath)
			loadedManifest, loadError := manifest.Load(manifestPath)
			if loadError != nil {
				return Result{}, fmt.Errorf(manifestMissingTemplateConstant, manifestPath)
			}
			releaseManifest = loadedManifest
			operationResult.Version = loadedManifest.Version
			operationResult.ManifestPath = manifestPath

			if len(strings.TrimSpace(loadedManifest.Subfolder)) > 0 {
				projectDirectory = filepath.Join(repository.RootPath(), loadedManifest.Subfolder)
				if _, statError := os.Stat(projectDirectory); statError != nil {
					return Result{}, fmt.Errorf(projectDirectoryMissingTemplateConstant, projectDirectory)
				}
			}
		}

		uploaded, uploadError := service.uploadManifest(executionContext, releaseManifest, projectDirectory, options)
		if uploadError != nil {
			return Result{}, uploadError
		}
		operationResult.Uploaded = uploaded
	}

	return operationResult, nil
}

// generateManifest resolves the version, assembles the manifest, and writes it to disk.
func (service *Service) generateManifest(executionContext context.Context, repository *gitrepo.Repository, options Options) (manifest.Manifest, string, error) {
	headFacts, headError := repository.HeadFacts()
	if headError != nil {
		return manifest.Manifest{}, "", headError
	}

	headTags, tagsError := repository.TagsPointingAtHead()
	if tagsError != nil {
		return manifest.Manifest{}, "", tagsError
	}

	resolverOptions := manifest.ResolverOptions{StripTagPrefix: options.StripTagPrefix}
	resolution := manifest.ResolveVersion(repository.RootPath(), options.Subfolder, headFacts, headTags, resolverOptions)
	fmt.Fprintf(service.output, detectedVersionMessageTemplateConstant, resolution.Version)

	sourceRef := resolveSourceRef(options, headFacts, headTags)

	service.logger.Info(
		versionResolvedLogMessageConstant,
		zap.String(logFieldVersionConstant, resolution.Version),
		zap.String(logFieldVersionSourceConstant, string(resolution.Source)),
		zap.String(logFieldSourceRefConstant, sourceRef),
	)

	manifestBuilder := manifest.NewBuilder(service.logger, service.releaseLookup)
	builtManifest := manifestBuilder.Build(executionContext, manifest.BuildInputs{
		Version:       resolution.Version,
		ReleaseType:   options.ReleaseType,
		Tags:          options.Tags,
		SourceRef:     sourceRef,
		RepositoryURL: repository.OriginURL(),
		CommitHash:    headFacts.CommitHash,
		CommittedTime: headFacts.CommittedTime,
		CommitMessage: headFacts.Message,
		Subfolder:     options.Subfolder,
	})

	manifestPath := manifest.ResolveOutputPath(options.ManifestPath)
	if writeError := builtManifest.Write(manifestPath); writeError != nil {
		return manifest.Manifest{}, "", writeError
	}
	fmt.Fprintf(service.output, manifestWrittenMessageTemplateConstant, manifestPath)

	return builtManifest, manifestPath, nil
}

// uploadManifest packages the project directory and ships it to the shop API.
// Missing upload credentials skip the upload with a notice rather than failing.
func (service *Service) uploadManifest(executionContext context.Context, releaseManifest manifest.Manifest, projectDirectory string, options Options) (bool, error) {
	if len(options.ProjectSlug) == 0 || len(options.APIURL) == 0 || len(options.APIToken) == 0 {
		fmt.Fprint(service.output, uploadSkippedMessageConstant)
		return false, nil
	}

	apiClient, clientError := hubclient.NewClient(options.APIURL, options.APIToken)
	if clientError != nil {
		return false, clientError
	}

	versionExists, existsError := apiClient.VersionExists(executionContext, options.ProjectSlug, releaseManifest.Version)
	if existsError != nil {
		return false, existsError
	}
	if versionExists {
		if !options.Overwrite {
			return false, fmt.Errorf(versionConflictTemplateConstant, releaseManifest.Version, options.ProjectSlug)
		}
		fmt.Fprintf(service.output, overwritingVersionMessageTemplate, releaseManifest.Version)
	}

	stagingDirectory := filepath.Join(os.TempDir(), fmt.Sprintf(uploadStagingDirectoryTemplateConstant, uuid.NewString()))
	if stagingError := os.MkdirAll(stagingDirectory, 0o755); stagingError != nil {
		return false, fmt.Errorf(uploadStagingErrorTemplateConstant, stagingError)
	}
	defer func() { _ = os.RemoveAll(stagingDirectory) }()

	archivePath := filepath.Join(stagingDirectory, archive.SafeArchiveName(releaseManifest.Name))
	fmt.Fprintf(service.output, packagingMessageTemplateConstant, projectDirectory, archivePath)
	if archiveError := archive.CreateZip(projectDirectory, archivePath); archiveError != nil {
		return false, archiveError
	}

	fmt.Fprintf(service.output, uploadingMessageTemplateConstant, options.ProjectSlug, releaseManifest.Version)
	createError := apiClient.CreateVersion(executionContext, options.ProjectSlug, hubclient.CreateVersionRequest{
		Name:        releaseManifest.Name,
		Version:     releaseManifest.Version,
		ReleaseType: releaseManifest.ReleaseType,
		ReleaseDate: releaseManifest.ReleaseDate,
		Changelog:   releaseManifest.Changelog,
		Tags:        releaseManifest.Tags,
		ArchivePath: archivePath,
	})
	if createError != nil {
		return false, createError
	}

	fmt.Fprint(service.output, uploadSucceededMessageConstant)
	return true, nil
}

// resolveSourceRef picks the tag or commit the manifest is derived from.
func resolveSourceRef(options Options, headFacts gitrepo.HeadFacts, headTags []string) string {
	if len(strings.TrimSpace(options.TagName)) > 0 {
		return strings.TrimSpace(options.TagName)
	}
	if len(strings.TrimSpace(options.CommitHash)) > 0 {
		return headFacts.CommitHash
	}
	if len(headTags) > 0 {
		return headTags[0]
	}
	return headFacts.CommitHash
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmedValue := strings.TrimSpace(value)
		if len(trimmedValue) > 0 {
			return trimmedValue
		}
	}
	return ""
}
