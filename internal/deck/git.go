package deck

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// SyncRepo clones the repository if localPath does not exist yet, otherwise
// pulls the latest changes from origin.
func SyncRepo(repoURL, localPath string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		log.Info("cloning deck repository", "url", repoURL, "path", localPath)
		if _, err := git.PlainClone(localPath, false, &git.CloneOptions{URL: repoURL}); err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", repoURL, err)
		}
	case err == nil:
		log.Info("pulling deck repository", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}
		err = worktree.Pull(&git.PullOptions{RemoteName: "origin"})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}
	return nil
}

// repoLocalPath maps a repository URL to a stable checkout directory under
// cacheDir, named after the last path element without the .git suffix.
func repoLocalPath(cacheDir, repoURL string) (string, error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("invalid repo url %s: %w", repoURL, err)
	}
	name := filepath.Base(u.Path)
	name = strings.TrimSuffix(name, ".git")
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("cannot derive directory name from repo url %s", repoURL)
	}
	return filepath.Join(cacheDir, name), nil
}
