// Package gitver resolves the product identity (name and version) of a build
// from its git checkout. It is used to fill in product settings that were
// left unset.
package gitver

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotRepository is returned when rootDir is not inside a git checkout.
var ErrNotRepository = errors.New("not a git repository")

// VersionInfo holds resolved version metadata from git.
type VersionInfo struct {
	Version   string // "1.2.3", "1.2.3-dev+abc1234", "0.0.0-dev+abc1234"
	Tag       string // tag the version was derived from, "" without tags
	SHA       string // short HEAD SHA
	Branch    string
	IsRelease bool // true if HEAD is exactly at the tag
}

// DetectVersion resolves the highest semver tag that is an ancestor of HEAD.
// HEAD not at that tag yields a "-dev+<sha>" suffix; no tag yields
// "0.0.0-dev+<sha>".
func DetectVersion(rootDir string) (*VersionInfo, error) {
	repo, err := open(rootDir)
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}
	headCommit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("reading HEAD commit: %w", err)
	}

	v := &VersionInfo{SHA: head.Hash().String()[:7]}
	if head.Name().IsBranch() {
		v.Branch = head.Name().Short()
	}

	var (
		best       *semver.Version
		bestCommit plumbing.Hash
	)

	tags, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		sv, err := semver.NewVersion(ref.Name().Short())
		if err != nil {
			return nil // not a version tag
		}
		commit, err := tagCommit(repo, ref)
		if err != nil {
			return nil
		}
		if ok, err := commit.IsAncestor(headCommit); err != nil || !ok {
			return nil
		}
		if best == nil || sv.GreaterThan(best) {
			best = sv
			bestCommit = commit.Hash
			v.Tag = ref.Name().Short()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading tags: %w", err)
	}

	if best == nil {
		v.Version = fmt.Sprintf("0.0.0-dev+%s", v.SHA)
		return v, nil
	}

	v.IsRelease = bestCommit == head.Hash()
	v.Version = best.String()
	if !v.IsRelease {
		v.Version = fmt.Sprintf("%s-dev+%s", v.Version, v.SHA)
	}
	return v, nil
}

// tagCommit peels annotated tags down to the tagged commit.
func tagCommit(repo *git.Repository, ref *plumbing.Reference) (*object.Commit, error) {
	if tag, err := repo.TagObject(ref.Hash()); err == nil {
		return tag.Commit()
	}
	return repo.CommitObject(ref.Hash())
}

func open(rootDir string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(rootDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, err
	}
	return repo, nil
}
