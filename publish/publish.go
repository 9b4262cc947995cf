package publish

import (
	"context"
	"fmt"
	"log"

	"github.com/adnsv/tsplay/config"
)

// Publisher stages the manifest and, for git targets, pushes the result.
type Publisher struct {
	Root     string
	Dir      string
	Manifest Manifest
	Git      *GitTarget // nil: stage only
}

func FromConfig(cfg *config.Config) *Publisher {
	p := &Publisher{
		Root:     cfg.Dir(),
		Dir:      cfg.Path(cfg.Deploy.Dir),
		Manifest: Manifest(cfg.Deploy.Assets),
	}
	if cfg.Deploy.Target == config.TargetGit {
		p.Git = NewGitTarget(cfg.Deploy.Remote, cfg.Deploy.Branch, cfg.Deploy.Message)
	}
	return p
}

// Deploy refuses to start if any manifest entry is missing.
func (p *Publisher) Deploy(ctx context.Context) error {
	if err := p.Manifest.Validate(p.Root); err != nil {
		return err
	}
	n, err := Stage(p.Root, p.Manifest, p.Dir)
	if err != nil {
		return fmt.Errorf("staging: %w", err)
	}
	log.Printf("staged %d file(s)\n", n)

	if p.Git == nil {
		return nil
	}
	_, err = p.Git.Publish(ctx, p.Root, p.Dir)
	return err
}
