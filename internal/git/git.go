// Package git reads tags, commits and changed files by shelling out to the git CLI.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	nextversion "github.com/bcomnes/nextversion/pkg"
)

var (
	refPattern  = regexp.MustCompile(`(?i)^[a-z0-9][a-z0-9._\-/]*$`)
	pathPattern = regexp.MustCompile(`(?i)^[a-z0-9._\- /\\#:]+$`)

	// ErrInvalidRef is returned for branch or tag names that are unsafe to pass to git.
	ErrInvalidRef  = errors.New("invalid git ref")
	ErrInvalidPath = errors.New("invalid path")
	ErrOutsideRepo = errors.New("directory is outside the repository")
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// Repo is a git working tree. It implements nextversion.VersionControl.
type Repo struct {
	Root string
}

var _ nextversion.VersionControl = (*Repo)(nil)

// Available reports whether a git binary can be run.
func Available() error {
	if err := exec.Command("git", "--version").Run(); err != nil {
		return errors.New("git is not available on the system")
	}
	return nil
}

// Open finds the top level of the working tree containing dir.
func Open(ctx context.Context, dir string) (*Repo, error) {
	if err := checkPath(dir); err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--show-toplevel")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git rev-parse failed in %q: %w, detail: %s", dir, err, strings.TrimSpace(stderr.String()))
	}
	return &Repo{Root: strings.TrimSpace(string(out))}, nil
}

func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", r.Root}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %w, detail: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (r *Repo) lines(ctx context.Context, args ...string) ([]string, error) {
	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	var result []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			result = append(result, line)
		}
	}
	return result, nil
}

func checkRef(ref string) error {
	if !refPattern.MatchString(ref) || strings.Contains(ref, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return nil
}

func checkPath(path string) error {
	if !pathPattern.MatchString(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return nil
}

func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (r *Repo) Tags(ctx context.Context) ([]string, error) {
	return r.lines(ctx, "tag", "--list", "--sort=-committerdate")
}

func (r *Repo) TagsOnBranch(ctx context.Context, branch string) ([]string, error) {
	if err := checkRef(branch); err != nil {
		return nil, err
	}
	return r.lines(ctx, "tag", "--list", "--sort=-committerdate", "--merged", branch)
}

func (r *Repo) TagsPointingAt(ctx context.Context, ref string) ([]string, error) {
	if err := checkRef(ref); err != nil {
		return nil, err
	}
	return r.lines(ctx, "tag", "--points-at", ref)
}

// CommitMessages returns the commits reachable from HEAD but not from since,
// newest first. An empty since returns every commit in the repository.
func (r *Repo) CommitMessages(ctx context.Context, since string) ([]nextversion.CommitMessage, error) {
	args := []string{"log", "--format=%H" + fieldSep + "%B" + recordSep}
	if since == "" {
		args = append(args, "--all")
	} else {
		if err := checkRef(since); err != nil {
			return nil, err
		}
		args = append(args, since+"..HEAD")
	}
	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var messages []nextversion.CommitMessage
	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimLeft(record, "\r\n")
		if record == "" {
			continue
		}
		hash, body, ok := strings.Cut(record, fieldSep)
		if !ok {
			continue
		}
		messages = append(messages, nextversion.CommitMessage{
			Hash:    strings.TrimSpace(hash),
			Message: strings.TrimSpace(body),
		})
	}
	return messages, nil
}

// ChangedFiles lists tracked files below dir that differ from since, or all
// tracked files below dir when since is empty. Paths are relative to the root.
func (r *Repo) ChangedFiles(ctx context.Context, dir, since string) ([]string, error) {
	rel, err := r.relative(dir)
	if err != nil {
		return nil, err
	}
	var args []string
	if since == "" {
		args = []string{"ls-files"}
	} else {
		if err := checkRef(since); err != nil {
			return nil, err
		}
		args = []string{"--no-pager", "diff", "--name-only", since}
	}
	if rel != "." {
		args = append(args, "--", rel)
	}
	return r.lines(ctx, args...)
}

func (r *Repo) relative(dir string) (string, error) {
	if dir == "" {
		return ".", nil
	}
	if err := checkPath(dir); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	root := r.Root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRepo, dir)
	}
	return filepath.ToSlash(rel), nil
}

// CreateTag creates a lightweight tag at HEAD.
func (r *Repo) CreateTag(ctx context.Context, name string) error {
	if err := checkRef(name); err != nil {
		return err
	}
	_, err := r.run(ctx, "tag", name)
	return err
}
