package checkout

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"satchel/internal/logging"
	"satchel/internal/services"
)

// Manifest names attempts to check out directly, bypassing the eligibility
// poll. Operators use it to republish specific attempts.
type Manifest struct {
	Attempts []int64 `yaml:"attempts"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %q: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %q: %w", path, err)
	}
	if len(m.Attempts) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "checkout", "load manifest",
			fmt.Sprintf("manifest %q names no attempts", path), nil)
	}
	return &m, nil
}

// RunManifest checks out the attempts the manifest names, regardless of
// their checkout flags. Attempts already checked out are rearmed first.
func (p *Processor) RunManifest(ctx context.Context, m *Manifest) (int, error) {
	jobs := make([]*job, 0, len(m.Attempts))
	for _, id := range m.Attempts {
		if err := p.store.ResetCheckout(ctx, id); err != nil {
			return 0, err
		}
		attempt, err := p.store.GetAttempt(ctx, id)
		if err != nil {
			return 0, err
		}
		pkg, err := p.store.GetPackage(ctx, attempt.PackageID)
		if err != nil {
			return 0, err
		}
		jobs = append(jobs, &job{attempt: attempt, pkg: pkg})
	}

	ids := make([]int64, len(jobs))
	for i, j := range jobs {
		ids[i] = j.attempt.ID
	}
	if err := p.store.MarkQueued(ctx, ids...); err != nil {
		return 0, err
	}

	p.logger.Info("running manifest batch", logging.Int("attempts", len(jobs)))
	p.runPool(ctx, jobs)
	return p.persist(ctx, jobs)
}
