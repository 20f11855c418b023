// Package gitrepo provides read-oriented access to Git repositories for the
// publishing workflow.
//
// It opens local checkouts (with parent directory discovery) or clones remote
// URLs into disposable temporary directories, and exposes the tag, commit, and
// remote lookups the version resolver and manifest builder depend on.
package gitrepo
