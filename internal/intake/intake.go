// Package intake watches the inbox directory for freshly dropped package
// archives and hands them to the submission handler.
package intake

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"satchel/internal/analyzer"
	"satchel/internal/logging"
	"satchel/internal/services"
)

// Handler processes one archive path found in the inbox.
type Handler func(ctx context.Context, path string) error

// Poller periodically scans the inbox for new archives.
type Poller struct {
	fs       afero.Fs
	dir      string
	interval time.Duration
	handler  Handler
	logger   *slog.Logger
	seen     map[string]struct{}
}

// New builds a poller over the given filesystem.
func New(fs afero.Fs, dir string, interval time.Duration, handler Handler, logger *slog.Logger) (*Poller, error) {
	if fs == nil {
		return nil, services.Wrap(services.ErrConfiguration, "intake", "new",
			"filesystem is required", nil)
	}
	if strings.TrimSpace(dir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "intake", "new",
			"inbox directory is required", nil)
	}
	if handler == nil {
		return nil, services.Wrap(services.ErrConfiguration, "intake", "new",
			"handler is required", nil)
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Poller{
		fs:       fs,
		dir:      dir,
		interval: interval,
		handler:  handler,
		logger:   logger.With(logging.String(logging.FieldComponent, "intake")),
		seen:     make(map[string]struct{}),
	}, nil
}

// Run scans the inbox until the context is canceled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.Scan(ctx); err != nil {
			p.logger.Error("inbox scan", logging.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Scan walks the inbox once and processes every new archive. It returns the
// number of archives handled successfully.
func (p *Poller) Scan(ctx context.Context) (int, error) {
	entries, err := afero.ReadDir(p.fs, p.dir)
	if err != nil {
		return 0, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".zip") {
			continue
		}
		if analyzer.IsMarkedFailed(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	handled := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return handled, err
		}
		path := filepath.Join(p.dir, name)
		if _, done := p.seen[path]; done {
			continue
		}

		if err := p.handle(ctx, path); err != nil {
			// remote trouble is retried on a later scan
			if services.IsRemote(err) {
				p.logger.Warn("archive deferred", logging.Error(err),
					logging.String(logging.FieldPackage, path))
				continue
			}
			p.seen[path] = struct{}{}
			if errors.Is(err, services.ErrDuplicate) {
				p.logger.Info("archive already submitted",
					logging.String(logging.FieldPackage, path))
				continue
			}
			p.logger.Error("archive rejected", logging.Error(err),
				logging.String(logging.FieldPackage, path))
			p.markFailed(path)
			continue
		}

		p.seen[path] = struct{}{}
		handled++
	}
	return handled, nil
}

func (p *Poller) handle(ctx context.Context, path string) error {
	p.logger.Info("archive found", logging.String(logging.FieldPackage, path))
	return p.handler(ctx, path)
}

func (p *Poller) markFailed(path string) {
	dir, name := filepath.Split(path)
	target := filepath.Join(dir, analyzer.FailedPrefix+name)
	if err := p.fs.Rename(path, target); err != nil {
		p.logger.Warn("mark archive as failed", logging.Error(err),
			logging.String(logging.FieldPackage, path))
	}
}
