package gitver

import (
	"path/filepath"
	"strings"
)

// ProjectMeta holds project-level metadata resolved from git.
type ProjectMeta struct {
	Name string // repo name (last path component of git remote, else checkout directory)
	URL  string // repo URL (git remote origin)
}

// DetectProject resolves the project name from the origin remote, falling
// back to the name of the checkout's top-level directory.
func DetectProject(rootDir string) (*ProjectMeta, error) {
	repo, err := open(rootDir)
	if err != nil {
		return nil, err
	}

	pm := &ProjectMeta{}
	if remote, err := repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			pm.URL = remoteToHTTPS(urls[0])
			pm.Name = repoNameFromRemote(urls[0])
		}
	}

	if pm.Name == "" {
		if wt, err := repo.Worktree(); err == nil {
			pm.Name = filepath.Base(wt.Filesystem.Root())
		}
	}
	return pm, nil
}

// repoNameFromRemote extracts the repository name from a git remote URL.
// Handles SSH (git@host:org/repo.git) and HTTPS (https://host/org/repo.git).
func repoNameFromRemote(remote string) string {
	remote = strings.TrimSuffix(remote, ".git")

	// SSH: git@host:org/repo
	if idx := strings.LastIndex(remote, ":"); idx != -1 && !strings.Contains(remote, "://") {
		remote = remote[idx+1:]
	}

	if idx := strings.LastIndex(remote, "/"); idx != -1 {
		return remote[idx+1:]
	}
	return remote
}

// remoteToHTTPS converts a git remote URL to HTTPS format for display.
// SSH remotes (git@host:org/repo.git) become https://host/org/repo.
func remoteToHTTPS(remote string) string {
	remote = strings.TrimSuffix(remote, ".git")

	if strings.HasPrefix(remote, "https://") || strings.HasPrefix(remote, "http://") {
		return remote
	}

	// SSH: git@host:org/repo → https://host/org/repo
	if idx := strings.Index(remote, "@"); idx != -1 {
		rest := remote[idx+1:]
		rest = strings.Replace(rest, ":", "/", 1)
		return "https://" + rest
	}
	return remote
}
