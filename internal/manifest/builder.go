package manifest

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	releaseLookupFailedMessageConstant  = "release metadata lookup failed, continuing without it"
	releaseLookupMissingMessageConstant = "no release metadata found"
	logFieldRepositoryURLConstant       = "repository_url"
	logFieldSourceRefConstant           = "source_ref"
)

// ReleaseMetadata carries the optional name and changelog of a hosted release.
type ReleaseMetadata struct {
	Name      string
	Changelog string
}

// ReleaseLookup resolves optional release metadata for a repository reference.
//
// Absence is not an error: implementations report found=false for ordinary
// misses and reserve the error return for unexpected failures, which the
// builder downgrades to a warning.
type ReleaseLookup interface {
	LookupRelease(executionContext context.Context, repositoryURL string, sourceRef string) (ReleaseMetadata, bool, error)
}

// BuildInputs carries the resolved facts a manifest is assembled from.
type BuildInputs struct {
	Version       string
	ReleaseType   ReleaseType
	Tags          []string
	SourceRef     string
	RepositoryURL string
	CommitHash    string
	CommittedTime time.Time
	CommitMessage string
	Subfolder     string
}

// Builder assembles manifests, consulting an optional release metadata lookup.
type Builder struct {
	logger        *zap.Logger
	releaseLookup ReleaseLookup
}

// NewBuilder constructs a Builder. The release lookup may be nil when no metadata service is configured.
func NewBuilder(logger *zap.Logger, releaseLookup ReleaseLookup) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger, releaseLookup: releaseLookup}
}

// Build assembles a complete manifest from the provided inputs.
//
// The release name and changelog come from the metadata lookup when one is
// configured and succeeds; otherwise the name falls back to the version and
// the changelog to the trimmed commit message.
func (builder *Builder) Build(executionContext context.Context, inputs BuildInputs) Manifest {
	releaseName := inputs.Version
	changelog := strings.TrimSpace(inputs.CommitMessage)

	if builder.releaseLookup != nil && len(inputs.RepositoryURL) > 0 {
		releaseMetadata, metadataFound, lookupError := builder.releaseLookup.LookupRelease(executionContext, inputs.RepositoryURL, inputs.SourceRef)
		switch {
		case lookupError != nil:
			builder.logger.Warn(
				releaseLookupFailedMessageConstant,
				zap.String(logFieldRepositoryURLConstant, inputs.RepositoryURL),
				zap.String(logFieldSourceRefConstant, inputs.SourceRef),
				zap.Error(lookupError),
			)
		case metadataFound:
			if len(strings.TrimSpace(releaseMetadata.Name)) > 0 {
				releaseName = releaseMetadata.Name
			}
			if len(strings.TrimSpace(releaseMetadata.Changelog)) > 0 {
				changelog = releaseMetadata.Changelog
			}
		default:
			builder.logger.Debug(
				releaseLookupMissingMessageConstant,
				zap.String(logFieldRepositoryURLConstant, inputs.RepositoryURL),
				zap.String(logFieldSourceRefConstant, inputs.SourceRef),
			)
		}
	}

	manifestTags := inputs.Tags
	if manifestTags == nil {
		manifestTags = []string{}
	}

	return Manifest{
		Version:       inputs.Version,
		Name:          releaseName,
		ReleaseType:   string(inputs.ReleaseType),
		ReleaseDate:   inputs.CommittedTime.UTC().Format(time.RFC3339),
		RepositoryURL: inputs.RepositoryURL,
		Commit:        inputs.CommitHash,
		SourceRef:     inputs.SourceRef,
		Subfolder:     inputs.Subfolder,
		Tags:          manifestTags,
		Changelog:     changelog,
	}
}
