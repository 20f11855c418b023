package masspublish

import "strings"

const (
	defaultSubfolderConstant   = "."
	defaultReleaseTypeConstant = "release"

	subfolderConfigurationKeyConstant   = "subfolder"
	releaseTypeConfigurationKeyConstant = "release_type"
	configurationKeySeparatorConstant   = "."
)

// CommandConfiguration captures persistent settings for the mass-publish command.
type CommandConfiguration struct {
	Subfolder      string `mapstructure:"subfolder"`
	ReleaseType    string `mapstructure:"release_type"`
	ProjectSlug    string `mapstructure:"project_slug"`
	APIURL         string `mapstructure:"api_url"`
	APIToken       string `mapstructure:"api_token"`
	GitHubToken    string `mapstructure:"github_token"`
	ManifestDir    string `mapstructure:"manifest_dir"`
	StripTagPrefix bool   `mapstructure:"strip_tag_prefix"`
}

// DefaultCommandConfiguration returns baseline configuration values for the mass-publish command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Subfolder:      defaultSubfolderConstant,
		ReleaseType:    defaultReleaseTypeConstant,
		StripTagPrefix: true,
	}
}

// DefaultConfigurationValues exposes defaults keyed under the provided configuration prefix.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationPrefix + configurationKeySeparatorConstant + subfolderConfigurationKeyConstant:   defaults.Subfolder,
		configurationPrefix + configurationKeySeparatorConstant + releaseTypeConfigurationKeyConstant: defaults.ReleaseType,
	}
}

// Sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.Subfolder = strings.TrimSpace(configuration.Subfolder)
	if len(sanitized.Subfolder) == 0 {
		sanitized.Subfolder = defaultSubfolderConstant
	}

	sanitized.ReleaseType = strings.TrimSpace(configuration.ReleaseType)
	if len(sanitized.ReleaseType) == 0 {
		sanitized.ReleaseType = defaultReleaseTypeConstant
	}

	sanitized.ProjectSlug = strings.TrimSpace(configuration.ProjectSlug)
	sanitized.APIURL = strings.TrimSpace(configuration.APIURL)
	sanitized.APIToken = strings.TrimSpace(configuration.APIToken)
	sanitized.GitHubToken = strings.TrimSpace(configuration.GitHubToken)
	sanitized.ManifestDir = strings.TrimSpace(configuration.ManifestDir)

	return sanitized
}
