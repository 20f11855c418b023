// Package githubcli wraps the GitHub CLI for release metadata lookups.
//
// It shells out to gh through execshell, parses git remote URLs to identify
// GitHub-hosted repositories, and implements the soft lookup contract used by
// the manifest builder: ordinary absence is reported without error so a
// missing release never fails a publish.
package githubcli
