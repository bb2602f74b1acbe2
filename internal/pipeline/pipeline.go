// Package pipeline drives extraction: it pulls functions from a source,
// builds their block graphs and writes the records to a sink in discovery
// order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"blockgraph/internal/graph"
)

// ErrAborted wraps the failure that stopped a run under PolicyAbort.
var ErrAborted = errors.New("extraction aborted")

// Source enumerates functions in discovery order.
type Source interface {
	Len() int
	// Function returns the i-th function. Implementations must allow
	// concurrent calls.
	Function(i int) (graph.RawFunction, error)
	// IsFunctionEntry reports whether an address literal starts a function.
	IsFunctionEntry(literal string) bool
}

// Sink receives records in discovery order.
type Sink interface {
	WriteFunction(rec *graph.FunctionRecord) error
}

// Runner extracts functions according to Config.
type Runner struct {
	Config Config
	Logger *log.Logger
}

// window bounds how many results per worker are held before writing.
const window = 64

// Run extracts every function of src into sink. Under PolicySkip failed
// functions are left out and recorded in Stats; under PolicyAbort the first
// failure ends the run with an error wrapping ErrAborted, and the caller must
// discard whatever the sink holds.
func (r *Runner) Run(ctx context.Context, src Source, sink Sink) (Stats, error) {
	cfg := r.Config
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}
	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	stats := newStats()
	n := src.Len()
	chunk := cfg.Workers * window

	for base := 0; base < n; base += chunk {
		hi := min(base+chunk, n)
		results := make([]graph.Result, hi-base)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Workers)
		for i := base; i < hi; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i-base] = extract(src, i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return stats, err
		}

		for _, res := range results {
			stats.Functions++
			if !res.Extracted() {
				if cfg.OnEdgeError == PolicyAbort {
					logger.Error("Extraction aborted", "function", res.Name, "error", res.Err)
					return stats, fmt.Errorf("%w: %w", ErrAborted, res.Err)
				}
				logger.Warn("Skipping function", "function", res.Name, "error", res.Err)
				stats.fail(res)
				continue
			}
			if err := sink.WriteFunction(res.Record); err != nil {
				return stats, fmt.Errorf("write function %q: %w", res.Name, err)
			}
			stats.Add(res.Record)
			logger.Debug("Extracted function", "function", res.Name,
				"blocks", len(res.Record.Blocks), "edges", res.Record.EdgeCount())
		}
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

func extract(src Source, i int) graph.Result {
	fn, err := src.Function(i)
	if err != nil {
		return graph.Result{Name: fn.Name, Err: err}
	}
	return graph.BuildResult(fn, src.IsFunctionEntry)
}

// Run is Runner.Run with a nil logger.
func Run(ctx context.Context, src Source, sink Sink, cfg Config) (Stats, error) {
	r := &Runner{Config: cfg}
	return r.Run(ctx, src, sink)
}
