package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/uuid"
)

const (
	httpProtocolPrefixConstant           = "http://"
	httpsRemotePrefixConstant            = "https://"
	gitUserRemotePrefixConstant          = "git@"
	sshRemotePrefixConstant              = "ssh://"
	originRemoteNameConstant             = "origin"
	temporaryCloneDirectoryTemplate      = "hub01-clone-%s"
	pathNotFoundTemplateConstant         = "path does not exist: %s"
	notARepositoryTemplateConstant       = "not a git repository: %s"
	cloneFailedTemplateConstant          = "unable to clone %s: %w"
	cloneDirectoryTemplateConstant       = "unable to create clone directory: %w"
	checkoutFailedTemplateConstant       = "unable to checkout %s: %w"
	revisionResolveTemplateConstant      = "unable to resolve revision %s: %w"
	headLookupErrorTemplateConstant      = "unable to read repository head: %w"
	commitLookupErrorTemplateConstant    = "unable to load commit %s: %w"
	tagIterationErrorTemplateConstant    = "unable to iterate tags: %w"
	worktreeLookupErrorTemplateConstant  = "unable to access worktree: %w"
	absolutePathErrorTemplateConstant    = "unable to resolve absolute path for %s: %w"
	temporaryCloneRemovalWarningConstant = "unable to remove temporary clone directory %s: %w"
)

var remoteInputPrefixes = []string{
	httpProtocolPrefixConstant,
	httpsRemotePrefixConstant,
	gitUserRemotePrefixConstant,
	sshRemotePrefixConstant,
}

// HeadFacts captures the commit details needed to resolve versions and build manifests.
type HeadFacts struct {
	CommitHash    string
	CommittedTime time.Time
	Message       string
}

// Repository wraps a go-git repository pinned to a working tree on disk.
type Repository struct {
	gitRepository  *git.Repository
	rootPath       string
	temporaryClone bool
}

// IsRemoteInput reports whether the provided input designates a clonable URL rather than a local path.
func IsRemoteInput(input string) bool {
	trimmedInput := strings.TrimSpace(input)
	for _, remotePrefix := range remoteInputPrefixes {
		if strings.HasPrefix(trimmedInput, remotePrefix) {
			return true
		}
	}
	return false
}

// Setup opens the repository at a local path or clones a remote URL into a temporary directory.
//
// Local paths are resolved with parent directory discovery so any location
// inside a working tree is accepted. Cloned repositories are owned by the
// returned handle and removed by Cleanup.
func Setup(executionContext context.Context, input string) (*Repository, error) {
	if IsRemoteInput(input) {
		return cloneRemote(executionContext, strings.TrimSpace(input))
	}
	return openLocal(input)
}

func cloneRemote(executionContext context.Context, remoteURL string) (*Repository, error) {
	cloneDirectory := filepath.Join(os.TempDir(), fmt.Sprintf(temporaryCloneDirectoryTemplate, uuid.NewString()))
	if directoryError := os.MkdirAll(cloneDirectory, 0o755); directoryError != nil {
		return nil, fmt.Errorf(cloneDirectoryTemplateConstant, directoryError)
	}

	clonedRepository, cloneError := git.PlainCloneContext(executionContext, cloneDirectory, false, &git.CloneOptions{URL: remoteURL})
	if cloneError != nil {
		_ = os.RemoveAll(cloneDirectory)
		return nil, fmt.Errorf(cloneFailedTemplateConstant, remoteURL, cloneError)
	}

	return &Repository{gitRepository: clonedRepository, rootPath: cloneDirectory, temporaryClone: true}, nil
}

func openLocal(localPath string) (*Repository, error) {
	absolutePath, absoluteError := filepath.Abs(localPath)
	if absoluteError != nil {
		return nil, fmt.Errorf(absolutePathErrorTemplateConstant, localPath, absoluteError)
	}

	if _, statError := os.Stat(absolutePath); statError != nil {
		return nil, fmt.Errorf(pathNotFoundTemplateConstant, absolutePath)
	}

	openedRepository, openError := git.PlainOpenWithOptions(absolutePath, &git.PlainOpenOptions{DetectDotGit: true})
	if openError != nil {
		return nil, fmt.Errorf(notARepositoryTemplateConstant, absolutePath)
	}

	worktree, worktreeError := openedRepository.Worktree()
	if worktreeError != nil {
		return nil, fmt.Errorf(worktreeLookupErrorTemplateConstant, worktreeError)
	}

	return &Repository{gitRepository: openedRepository, rootPath: worktree.Filesystem.Root(), temporaryClone: false}, nil
}

// RootPath returns the working tree root of the repository.
func (repository *Repository) RootPath() string {
	return repository.rootPath
}

// Cleanup removes the temporary clone directory when the repository was cloned by Setup.
func (repository *Repository) Cleanup() error {
	if !repository.temporaryClone {
		return nil
	}
	if removalError := os.RemoveAll(repository.rootPath); removalError != nil {
		return fmt.Errorf(temporaryCloneRemovalWarningConstant, repository.rootPath, removalError)
	}
	return nil
}

// CheckoutRevision switches the working tree to the commit identified by the tag, branch, or hash.
func (repository *Repository) CheckoutRevision(reference string) error {
	resolvedHash, resolveError := repository.gitRepository.ResolveRevision(plumbing.Revision(reference))
	if resolveError != nil {
		return fmt.Errorf(revisionResolveTemplateConstant, reference, resolveError)
	}

	worktree, worktreeError := repository.gitRepository.Worktree()
	if worktreeError != nil {
		return fmt.Errorf(worktreeLookupErrorTemplateConstant, worktreeError)
	}

	checkoutError := worktree.Checkout(&git.CheckoutOptions{Hash: *resolvedHash})
	if checkoutError != nil {
		return fmt.Errorf(checkoutFailedTemplateConstant, reference, checkoutError)
	}

	return nil
}

// HeadFacts reads the hash, committer timestamp, and message of the current head commit.
func (repository *Repository) HeadFacts() (HeadFacts, error) {
	headReference, headError := repository.gitRepository.Head()
	if headError != nil {
		return HeadFacts{}, fmt.Errorf(headLookupErrorTemplateConstant, headError)
	}

	headCommit, commitError := repository.gitRepository.CommitObject(headReference.Hash())
	if commitError != nil {
		return HeadFacts{}, fmt.Errorf(commitLookupErrorTemplateConstant, headReference.Hash(), commitError)
	}

	return HeadFacts{
		CommitHash:    headCommit.Hash.String(),
		CommittedTime: headCommit.Committer.When,
		Message:       headCommit.Message,
	}, nil
}

// TagsPointingAtHead lists the short names of tags whose target equals the current head commit.
func (repository *Repository) TagsPointingAtHead() ([]string, error) {
	headReference, headError := repository.gitRepository.Head()
	if headError != nil {
		return nil, fmt.Errorf(headLookupErrorTemplateConstant, headError)
	}
	headHash := headReference.Hash()

	tagNames := []string{}
	iterationError := repository.forEachTag(func(tagName string, targetHash plumbing.Hash) {
		if targetHash == headHash {
			tagNames = append(tagNames, tagName)
		}
	})
	if iterationError != nil {
		return nil, iterationError
	}

	return tagNames, nil
}

// MatchingTagNames lists the short names of tags matching the provided pattern.
func (repository *Repository) MatchingTagNames(pattern *regexp.Regexp) ([]string, error) {
	tagNames := []string{}
	iterationError := repository.forEachTag(func(tagName string, targetHash plumbing.Hash) {
		if pattern.MatchString(tagName) {
			tagNames = append(tagNames, tagName)
		}
	})
	if iterationError != nil {
		return nil, iterationError
	}

	return tagNames, nil
}

// OriginURL returns the first URL of the origin remote, or an empty string when no origin exists.
func (repository *Repository) OriginURL() string {
	originRemote, remoteError := repository.gitRepository.Remote(originRemoteNameConstant)
	if remoteError != nil {
		return ""
	}
	remoteURLs := originRemote.Config().URLs
	if len(remoteURLs) == 0 {
		return ""
	}
	return remoteURLs[0]
}

// forEachTag visits every tag with its peeled commit hash, resolving annotated tag objects to their targets.
func (repository *Repository) forEachTag(visit func(tagName string, targetHash plumbing.Hash)) error {
	tagReferences, tagsError := repository.gitRepository.Tags()
	if tagsError != nil {
		return fmt.Errorf(tagIterationErrorTemplateConstant, tagsError)
	}

	iterationError := tagReferences.ForEach(func(tagReference *plumbing.Reference) error {
		targetHash := tagReference.Hash()
		if tagObject, tagObjectError := repository.gitRepository.TagObject(tagReference.Hash()); tagObjectError == nil {
			targetHash = tagObject.Target
		}
		visit(tagReference.Name().Short(), targetHash)
		return nil
	})
	if iterationError != nil {
		return fmt.Errorf(tagIterationErrorTemplateConstant, iterationError)
	}

	return nil
}
