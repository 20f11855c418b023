package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	releaseTypeReleaseStringConstant        = "release"
	releaseTypeBetaStringConstant           = "beta"
	releaseTypeAlphaStringConstant          = "alpha"
	defaultManifestFileNameConstant         = "manifest.json"
	manifestIndentConstant                  = "    "
	manifestTrailingNewlineConstant         = "\n"
	unsupportedReleaseTypeTemplateConstant  = "unsupported release type: %s"
	manifestEncodingErrorTemplateConstant   = "unable to encode manifest: %w"
	manifestDecodingErrorTemplateConstant   = "unable to decode manifest %s: %w"
	manifestReadErrorTemplateConstant       = "unable to read manifest %s: %w"
	manifestWriteErrorTemplateConstant      = "unable to write manifest %s: %w"
	manifestDirectoryErrorTemplateConstant  = "unable to create manifest directory %s: %w"
	manifestFilePermissionsConstant         = 0o644
	manifestDirectoryPermissionsConstant    = 0o755
)

// ReleaseType classifies the stability of a release.
type ReleaseType string

// Supported release types.
const (
	ReleaseTypeRelease ReleaseType = ReleaseType(releaseTypeReleaseStringConstant)
	ReleaseTypeBeta    ReleaseType = ReleaseType(releaseTypeBetaStringConstant)
	ReleaseTypeAlpha   ReleaseType = ReleaseType(releaseTypeAlphaStringConstant)
)

// ParseReleaseType validates a textual release type.
func ParseReleaseType(candidate string) (ReleaseType, error) {
	normalized := ReleaseType(strings.ToLower(strings.TrimSpace(candidate)))
	switch normalized {
	case ReleaseTypeRelease, ReleaseTypeBeta, ReleaseTypeAlpha:
		return normalized, nil
	default:
		return "", fmt.Errorf(unsupportedReleaseTypeTemplateConstant, candidate)
	}
}

// Manifest describes one publishable release.
//
// Field order is fixed so that serializing, deserializing, and reserializing
// a manifest yields byte-identical output.
type Manifest struct {
	Version       string   `json:"version"`
	Name          string   `json:"name"`
	ReleaseType   string   `json:"release_type"`
	ReleaseDate   string   `json:"release_date"`
	RepositoryURL string   `json:"repository_url"`
	Commit        string   `json:"commit"`
	SourceRef     string   `json:"source_ref"`
	Subfolder     string   `json:"subfolder"`
	Tags          []string `json:"tags"`
	Changelog     string   `json:"changelog"`
}

// Serialize renders the manifest as an indented JSON document with a trailing newline.
func (document Manifest) Serialize() ([]byte, error) {
	encoded, encodingError := json.MarshalIndent(document, "", manifestIndentConstant)
	if encodingError != nil {
		return nil, fmt.Errorf(manifestEncodingErrorTemplateConstant, encodingError)
	}
	return append(encoded, manifestTrailingNewlineConstant...), nil
}

// ResolveOutputPath maps a configured manifest path to the concrete file location.
//
// An empty path defaults to manifest.json in the current directory, an
// existing directory (or a path with a trailing separator) receives a
// manifest.json entry, and any other value is used verbatim.
func ResolveOutputPath(configuredPath string) string {
	trimmedPath := strings.TrimSpace(configuredPath)
	if len(trimmedPath) == 0 {
		return defaultManifestFileNameConstant
	}
	if strings.HasSuffix(trimmedPath, string(os.PathSeparator)) {
		return filepath.Join(trimmedPath, defaultManifestFileNameConstant)
	}
	if pathInfo, statError := os.Stat(trimmedPath); statError == nil && pathInfo.IsDir() {
		return filepath.Join(trimmedPath, defaultManifestFileNameConstant)
	}
	return trimmedPath
}

// Write persists the manifest at the provided path, creating parent directories and overwriting any existing file.
func (document Manifest) Write(outputPath string) error {
	serialized, serializationError := document.Serialize()
	if serializationError != nil {
		return serializationError
	}

	outputDirectory := filepath.Dir(outputPath)
	if len(outputDirectory) > 0 {
		if directoryError := os.MkdirAll(outputDirectory, manifestDirectoryPermissionsConstant); directoryError != nil {
			return fmt.Errorf(manifestDirectoryErrorTemplateConstant, outputDirectory, directoryError)
		}
	}

	if writeError := os.WriteFile(outputPath, serialized, manifestFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(manifestWriteErrorTemplateConstant, outputPath, writeError)
	}

	return nil
}

// Load reads and decodes a previously written manifest.
func Load(manifestPath string) (Manifest, error) {
	manifestBytes, readError := os.ReadFile(manifestPath)
	if readError != nil {
		return Manifest{}, fmt.Errorf(manifestReadErrorTemplateConstant, manifestPath, readError)
	}

	var document Manifest
	if decodeError := json.Unmarshal(manifestBytes, &document); decodeError != nil {
		return Manifest{}, fmt.Errorf(manifestDecodingErrorTemplateConstant, manifestPath, decodeError)
	}

	return document, nil
}
