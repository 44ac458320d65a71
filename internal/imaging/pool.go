package imaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/webharvest/internal/model"
)

// DefaultWorkers is the default number of concurrent acquisitions.
const DefaultWorkers = 4

// Pool runs image acquisitions across a bounded set of workers.
// Images are independent of each other once aggregation has stamped
// their ordinals, so they parallelize freely; only the results need
// coordination.
type Pool struct {
	// acquirer performs the individual downloads.
	acquirer *Acquirer

	// workers bounds concurrent acquisitions.
	workers int

	// logger receives pool progress events.
	logger *slog.Logger
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithWorkers sets the number of concurrent acquisitions.
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithPoolLogger sets the logger for pool progress.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPool creates a Pool around the given acquirer.
func NewPool(acquirer *Acquirer, opts ...PoolOption) *Pool {
	p := &Pool{
		acquirer: acquirer,
		workers:  DefaultWorkers,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run acquires every reference and returns the saved images in
// worklist order, together with one warning per failed image. The
// pool itself never fails: a broken image costs a warning, a canceled
// context costs a warning per unstarted image, and everything already
// saved is returned either way.
//
// File base names follow the global numbering:
// image_<globalIndex>_from_page_<pageNumber>, both zero-padded.
func (p *Pool) Run(ctx context.Context, refs []model.ImageRef) ([]*model.SavedImage, []model.Warning) {
	p.logger.Info("starting image acquisition",
		"images", len(refs),
		"workers", p.workers,
	)

	// Pre-allocate results slice to maintain order.
	results := make([]*model.SavedImage, len(refs))

	var mu sync.Mutex
	warnings := make([]model.Warning, 0)
	firstPath := make(map[string]string) // fingerprint -> first saved path

	warn := func(target string, err error) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, model.Warning{
			Stage:   "acquire",
			Target:  target,
			Message: err.Error(),
		})
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, ref := range refs {
		g.Go(func() error {
			// Check for cancellation before starting.
			select {
			case <-ctx.Done():
				warn(ref.URL, ctx.Err())
				return nil
			default:
			}

			baseName := fmt.Sprintf("image_%03d_from_page_%03d", ref.GlobalIndex, ref.PageNumber)

			saved, err := p.acquirer.Acquire(ctx, ref, baseName)
			if err != nil {
				p.logger.Warn("image skipped", "url", ref.URL, "error", err)
				warn(ref.URL, err)
				return nil
			}

			mu.Lock()
			if first, dup := firstPath[saved.Fingerprint]; dup {
				p.logger.Debug("duplicate payload",
					"url", ref.URL,
					"path", saved.Path,
					"sameAs", first,
				)
			} else {
				firstPath[saved.Fingerprint] = saved.Path
			}
			results[i] = saved
			mu.Unlock()

			return nil
		})
	}

	// Workers never return errors; failures live in warnings.
	_ = g.Wait()

	saved := make([]*model.SavedImage, 0, len(refs))
	for _, s := range results {
		if s != nil {
			saved = append(saved, s)
		}
	}

	p.logger.Info("image acquisition finished",
		"saved", len(saved),
		"failed", len(warnings),
	)

	return saved, warnings
}
