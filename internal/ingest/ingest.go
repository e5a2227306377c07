// Package ingest sequences a verified bulk copy: validate every path,
// index the source once, then copy, re-index, and reconcile each
// destination in turn.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"sdingest/internal/index"
	"sdingest/internal/logging"
	"sdingest/internal/mirror"
	"sdingest/internal/reconcile"
	"sdingest/internal/validate"
)

// ErrInvalidInput reports that a source or destination path failed
// validation. Raised before any copy is attempted.
var ErrInvalidInput = errors.New("invalid input")

// Options configures an ingest run.
type Options struct {
	// Excludes are walker patterns applied when indexing both sides.
	Excludes []string
	// Workers bounds the hashing pool; 0 uses the index default.
	Workers int
	// Attempts is the copy retry budget; 0 uses the mirror default.
	Attempts int
	// Runner invokes the copy tool; nil uses rsync.
	Runner mirror.Runner
	// ContinueOnError processes remaining destinations after one fails
	// instead of aborting on the first failure.
	ContinueOnError bool
}

// DestinationResult is the outcome for a single destination.
type DestinationResult struct {
	Dest string
	// Copied is true once the copy tool succeeded.
	Copied bool
	// Report is the reconciliation outcome; nil when the copy or the
	// destination indexing failed first.
	Report *reconcile.Report
	// Err holds the copy or indexing failure for this destination.
	Err error
}

// Failed reports whether this destination's processing failed at any stage.
func (d *DestinationResult) Failed() bool {
	return d.Err != nil || (d.Report != nil && !d.Report.Success())
}

// Result is the terminal state of one ingest run.
type Result struct {
	Source       string
	Destinations []DestinationResult
	// ErrorCount aggregates checksum mismatches across all destinations.
	ErrorCount int
}

// Success reports whether every destination was copied and verified.
func (r *Result) Success() bool {
	for i := range r.Destinations {
		if r.Destinations[i].Failed() {
			return false
		}
	}
	return len(r.Destinations) > 0
}

// Orchestrator runs the ingest state machine.
type Orchestrator struct {
	builder         *index.Builder
	invoker         *mirror.Invoker
	engine          *reconcile.Engine
	continueOnError bool
}

// New creates an Orchestrator from opts.
func New(opts Options) *Orchestrator {
	runner := opts.Runner
	if runner == nil {
		runner = &mirror.RsyncRunner{}
	}

	builderOpts := []index.Option{index.WithExcludes(opts.Excludes)}
	if opts.Workers > 0 {
		builderOpts = append(builderOpts, index.WithWorkers(opts.Workers))
	}
	builder := index.NewBuilder(builderOpts...)

	return &Orchestrator{
		builder:         builder,
		invoker:         mirror.NewInvoker(runner, opts.Attempts),
		engine:          reconcile.NewEngine(builder),
		continueOnError: opts.ContinueOnError,
	}
}

// Run copies source into every destination and verifies each copy.
//
// Validation is fail-fast: a bad source or destination aborts before
// any mutation with ErrInvalidInput. The source is indexed once and the
// index reused for every destination. Destinations are processed
// sequentially in the order given; by default the first failed
// destination aborts the run, leaving later destinations unattempted.
func (o *Orchestrator) Run(ctx context.Context, source string, dests []string) (*Result, error) {
	if len(dests) == 0 {
		return nil, fmt.Errorf("%w: no destinations given", ErrInvalidInput)
	}
	if !validate.IsDirectory(source) {
		return nil, fmt.Errorf("%w: source %s is not a directory", ErrInvalidInput, source)
	}
	for _, dest := range dests {
		if !validate.IsDirectory(dest) {
			return nil, fmt.Errorf("%w: destination %s is not a directory", ErrInvalidInput, dest)
		}
		if !validate.IsWritable(dest) {
			return nil, fmt.Errorf("%w: destination %s is not writable", ErrInvalidInput, dest)
		}
	}

	sourceIndex, err := o.builder.Build(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("index source: %w", err)
	}

	result := &Result{Source: sourceIndex.Root()}
	for _, dest := range dests {
		destResult := o.runDestination(ctx, sourceIndex, dest)
		result.Destinations = append(result.Destinations, destResult)
		if destResult.Report != nil {
			result.ErrorCount += destResult.Report.ErrorCount()
		}

		if destResult.Failed() && !o.continueOnError {
			break
		}
	}

	logger := logging.GetLogger("ingest")
	if result.ErrorCount > 0 {
		logger.WithLevel(zerolog.FatalLevel).Int("mismatches", result.ErrorCount).Msg("Checksum mismatches detected")
	} else if result.Success() {
		logger.Info().Str("source", result.Source).Int("destinations", len(result.Destinations)).Msg("Ingest verified")
	}

	return result, nil
}

func (o *Orchestrator) runDestination(ctx context.Context, sourceIndex *index.Index, dest string) DestinationResult {
	destResult := DestinationResult{Dest: dest}

	if err := o.invoker.Copy(ctx, sourceIndex.Root(), dest); err != nil {
		destResult.Err = err
		return destResult
	}
	destResult.Copied = true

	report, err := o.engine.Reconcile(ctx, sourceIndex, dest)
	if err != nil {
		destResult.Err = err
		return destResult
	}
	destResult.Report = report

	return destResult
}
