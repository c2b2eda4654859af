package publish

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// PushFunc sends the refspecs in opts to the remote.
type PushFunc func(ctx context.Context, repo *git.Repository, opts *git.PushOptions) error

func defaultPush(ctx context.Context, repo *git.Repository, opts *git.PushOptions) error {
	return repo.PushContext(ctx, opts)
}

// Git commits the dataset files in a working copy and pushes them.
type Git struct {
	repoDir string
	remote  string
	branch  string
	paths   []string
	author  object.Signature
	auth    transport.AuthMethod
	push    PushFunc
	now     func() time.Time
}

// GitOption configures Git.
type GitOption func(*Git)

// WithAuthor sets the commit author.
func WithAuthor(name, email string) GitOption {
	return func(g *Git) {
		if name != "" {
			g.author.Name = name
		}
		if email != "" {
			g.author.Email = email
		}
	}
}

// WithToken authenticates HTTPS pushes with a personal access token.
func WithToken(token string) GitOption {
	return func(g *Git) {
		if token != "" {
			g.auth = &githttp.BasicAuth{Username: "x-access-token", Password: token}
		}
	}
}

// WithPush replaces the network push.
func WithPush(fn PushFunc) GitOption {
	return func(g *Git) {
		if fn != nil {
			g.push = fn
		}
	}
}

// NewGit publishes paths (relative to repoDir or absolute inside it).
func NewGit(repoDir, remote, branch string, paths []string, opts ...GitOption) *Git {
	g := &Git{
		repoDir: repoDir,
		remote:  remote,
		branch:  branch,
		paths:   paths,
		author:  object.Signature{Name: "atp", Email: "atp@localhost"},
		push:    defaultPush,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Git) Name() string { return "git" }

// Publish stages the paths, commits if anything is staged, then pushes.
// A clean index is not an error, nor is a remote that is already up to date.
func (g *Git) Publish(ctx context.Context, n Notice) error {
	repo, err := git.PlainOpen(g.repoDir)
	if err != nil {
		return fmt.Errorf("git open %s: %w", g.repoDir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("git worktree: %w", err)
	}

	for _, p := range g.paths {
		rel, err := g.relative(p)
		if err != nil {
			return err
		}
		if _, err := wt.Add(rel); err != nil {
			return fmt.Errorf("git add %s: %w", rel, err)
		}
	}

	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("git status: %w", err)
	}
	if !hasStaged(status) {
		return nil
	}

	author := g.author
	author.When = g.now()
	msg := fmt.Sprintf("ATP rankings update %s", n.UpdatedAt.Format(time.DateTime))
	if _, err := wt.Commit(msg, &git.CommitOptions{Author: &author}); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}

	spec, err := g.refSpec(repo)
	if err != nil {
		return err
	}
	err = g.push(ctx, repo, &git.PushOptions{
		RemoteName: g.remote,
		RefSpecs:   []gitconfig.RefSpec{spec},
		Auth:       g.auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("git push %s: %w", g.remote, err)
	}
	return nil
}

func (g *Git) relative(p string) (string, error) {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(p), nil
	}
	rel, err := filepath.Rel(g.repoDir, p)
	if err != nil {
		return "", fmt.Errorf("git path %s: %w", p, err)
	}
	return filepath.ToSlash(rel), nil
}

// refSpec maps the checked-out branch onto the target branch. Without a
// target branch the current one is pushed under its own name.
func (g *Git) refSpec(repo *git.Repository) (gitconfig.RefSpec, error) {
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("git head: %w", err)
	}
	dst := head.Name()
	if g.branch != "" {
		dst = plumbing.NewBranchReferenceName(g.branch)
	}
	spec := gitconfig.RefSpec(head.Name().String() + ":" + dst.String())
	if err := spec.Validate(); err != nil {
		return "", fmt.Errorf("git refspec %s: %w", spec, err)
	}
	return spec, nil
}

func hasStaged(st git.Status) bool {
	for _, fs := range st {
		if fs.Staging != git.Unmodified && fs.Staging != git.Untracked {
			return true
		}
	}
	return false
}
