package publish

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/oklog/ulid/v2"
)

// GitTarget force-pushes the staging directory as a single orphan commit to
// Branch of the repository behind Remote.
type GitTarget struct {
	Runner  Runner
	Remote  string // remote name in the project repository
	Branch  string
	Message string
}

func NewGitTarget(remote, branch, message string) *GitTarget {
	return &GitTarget{
		Runner:  ExecRunner{Program: "git"},
		Remote:  remote,
		Branch:  branch,
		Message: message,
	}
}

func (g *GitTarget) output(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := g.Runner.Run(ctx, dir, args...)
	return strings.TrimSpace(string(out)), err
}

// identity returns the committer configured in the project repository, or a
// fallback so commits work on machines without a global git identity.
func (g *GitTarget) identity(ctx context.Context, root string) (name, email string) {
	name, err := g.output(ctx, root, "config", "user.name")
	if err != nil || name == "" {
		name = "tsplay"
	}
	email, err = g.output(ctx, root, "config", "user.email")
	if err != nil || email == "" {
		email = "tsplay@localhost"
	}
	return name, email
}

// Publish commits the content of dir and pushes it. The returned id is
// stamped into the commit message.
func (g *GitTarget) Publish(ctx context.Context, root, dir string) (id string, err error) {
	remoteURL, err := g.output(ctx, root, "remote", "get-url", g.Remote)
	if err != nil {
		return "", fmt.Errorf("resolving remote '%s': %w", g.Remote, err)
	}
	if remoteURL == "" {
		return "", fmt.Errorf("remote '%s' has no url", g.Remote)
	}
	name, email := g.identity(ctx, root)

	id = ulid.Make().String()
	msg := strings.TrimSpace(g.Message + " " + id)

	steps := [][]string{
		{"init", "-q"},
		{"symbolic-ref", "HEAD", "refs/heads/" + g.Branch},
		{"add", "-A", "-f"},
		{"-c", "user.name=" + name, "-c", "user.email=" + email, "commit", "-q", "-m", msg},
		{"push", "-q", "--force", remoteURL, g.Branch},
	}
	for _, args := range steps {
		log.Printf("- git %s\n", strings.ReplaceAll(strings.Join(args, " "), remoteURL, redact(remoteURL)))
		if _, err = g.Runner.Run(ctx, dir, args...); err != nil {
			return "", err
		}
	}
	log.Printf("published %s to %s (%s)\n", g.Branch, redact(remoteURL), id)
	return id, nil
}

// redact hides credentials embedded in an https remote.
func redact(remote string) string {
	u, err := url.Parse(remote)
	if err != nil || u.User == nil {
		return remote
	}
	return u.Redacted()
}
