package arcindex

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// IndexResult is the outcome of indexing one path.
type IndexResult struct {
	Path    string   `json:"path"`
	Archive *Archive `json:"archive,omitempty"`
	Err     error    `json:"-"`
}

// IndexPaths opens every path on a pool of worker goroutines (GOMAXPROCS
// when workers <= 0). Results keep the order of paths. A failing path does
// not stop the others: its error is stored in its result and all failures are
// also returned together. Cancelling ctx stops paths that have not started.
func IndexPaths(ctx context.Context, fsys FileSystem, paths []string, workers int, optFns ...func(*Options)) ([]IndexResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]IndexResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		results[i].Path = p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = fmt.Errorf("%s: %w", p, err)
				return nil
			}
			results[i].Archive, results[i].Err = OpenFile(fsys, p, optFns...)
			return nil
		})
	}
	_ = g.Wait()

	var merr *multierror.Error
	for _, r := range results {
		if r.Err != nil {
			merr = multierror.Append(merr, r.Err)
		}
	}
	return results, merr.ErrorOrNil()
}
