package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/SrGnis/Hub01-Shop-API-Tools/internal/gitrepo"
)

const (
	metadataFileNameConstant       = "modinfo.json"
	metadataVersionFieldConstant   = "version"
	tagVersionPrefixConstant       = "v"
	commitDateVersionLayoutConstant = "2006.01.02.150405"
	invalidVersionCharacterReplacementConstant = "-"
)

// VersionSource identifies which rule of the resolution priority produced a version.
type VersionSource string

// Resolution priority rules, highest first.
const (
	VersionSourceMetadata   VersionSource = "metadata"
	VersionSourceTag        VersionSource = "tag"
	VersionSourceCommitDate VersionSource = "commit_date"
)

var (
	validVersionPattern     = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+$`)
	invalidVersionCharacter = regexp.MustCompile(`[^a-zA-Z0-9_.+-]`)
)

// ResolverOptions tune version resolution behavior.
type ResolverOptions struct {
	// StripTagPrefix removes a leading "v" from tag names before using them as versions.
	StripTagPrefix bool
}

// DefaultResolverOptions returns the resolution behavior used by the publish command.
func DefaultResolverOptions() ResolverOptions {
	return ResolverOptions{StripTagPrefix: true}
}

// Resolution reports the resolved version together with the rule that produced it.
type Resolution struct {
	Version string
	Source  VersionSource
}

// SanitizeVersion replaces characters outside [a-zA-Z0-9_.+-] with dashes.
func SanitizeVersion(rawVersion string) string {
	if validVersionPattern.MatchString(rawVersion) {
		return rawVersion
	}
	return invalidVersionCharacter.ReplaceAllString(rawVersion, invalidVersionCharacterReplacementConstant)
}

// ResolveVersion determines the version for the checked out commit.
//
// Priority: an explicit version field in the subfolder's modinfo.json, then
// the first tag pointing at the head commit, then the commit date formatted
// as YYYY.MM.DD.HHMMSS in UTC. Resolution never fails; it degrades through
// the priority list.
func ResolveVersion(repositoryRoot string, subfolder string, headFacts gitrepo.HeadFacts, headTags []string, options ResolverOptions) Resolution {
	if metadataVersion, metadataFound := readMetadataVersion(filepath.Join(repositoryRoot, subfolder, metadataFileNameConstant)); metadataFound {
		return Resolution{Version: SanitizeVersion(metadataVersion), Source: VersionSourceMetadata}
	}

	for _, tagName := range headTags {
		candidateVersion := tagName
		if options.StripTagPrefix {
			candidateVersion = strings.TrimPrefix(candidateVersion, tagVersionPrefixConstant)
		}
		if len(candidateVersion) == 0 {
			continue
		}
		return Resolution{Version: SanitizeVersion(candidateVersion), Source: VersionSourceTag}
	}

	return Resolution{
		Version: headFacts.CommittedTime.UTC().Format(commitDateVersionLayoutConstant),
		Source:  VersionSourceCommitDate,
	}
}

// readMetadataVersion extracts a non-empty version field from a modinfo.json file.
// Missing files and malformed documents fall through to the next resolution rule.
func readMetadataVersion(metadataPath string) (string, bool) {
	metadataBytes, readError := os.ReadFile(metadataPath)
	if readError != nil {
		return "", false
	}

	var metadataDocument map[string]any
	if decodeError := json.Unmarshal(metadataBytes, &metadataDocument); decodeError != nil {
		return "", false
	}

	rawVersion, versionPresent := metadataDocument[metadataVersionFieldConstant]
	if !versionPresent {
		return "", false
	}

	var versionText string
	switch typedVersion := rawVersion.(type) {
	case string:
		versionText = typedVersion
	case float64:
		encodedVersion, encodeError := json.Marshal(typedVersion)
		if encodeError != nil {
			return "", false
		}
		versionText = string(encodedVersion)
	default:
		return "", false
	}

	versionText = strings.TrimSpace(versionText)
	if len(versionText) == 0 {
		return "", false
	}

	return versionText, true
}
