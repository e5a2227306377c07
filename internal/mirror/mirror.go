// Package mirror replicates a directory tree using an external copy tool.
//
// The tool is treated as a black box: only its exit status is
// interpreted, never its per-file output. Verification of the copy is
// the reconcile package's job.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"sdingest/internal/logging"
)

// DefaultAttempts is the bounded retry budget for a failing copy tool.
const DefaultAttempts = 3

// ErrCopyFailed reports that the copy tool failed every attempt.
var ErrCopyFailed = errors.New("copy failed")

// Runner invokes the external mirroring tool once.
type Runner interface {
	Run(ctx context.Context, source, dest string) error
}

// RsyncRunner runs rsync in archive mode with checksum-based change
// detection. The source path gets a trailing separator so the tree's
// contents land directly inside dest rather than in a subdirectory.
type RsyncRunner struct {
	// Command is the tool to invoke; defaults to "rsync".
	Command string
	// ExtraArgs are appended after the default flags.
	ExtraArgs []string
}

func (r *RsyncRunner) Run(ctx context.Context, source, dest string) error {
	command := r.Command
	if command == "" {
		command = "rsync"
	}

	args := []string{"-a", "--checksum"}
	args = append(args, r.ExtraArgs...)
	args = append(args, strings.TrimSuffix(source, "/")+"/", dest)

	cmd := exec.CommandContext(ctx, command, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", command, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Invoker copies a tree with a bounded retry budget.
type Invoker struct {
	runner   Runner
	attempts int
}

// NewInvoker creates an Invoker around runner. Attempts below 1 fall
// back to DefaultAttempts.
func NewInvoker(runner Runner, attempts int) *Invoker {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	return &Invoker{runner: runner, attempts: attempts}
}

// Copy replicates source into dest, retrying immediately on tool
// failure until the attempt budget is exhausted. On exhaustion it
// returns ErrCopyFailed wrapping the last tool error. A failed copy may
// leave dest partially written; nothing is rolled back.
func (iv *Invoker) Copy(ctx context.Context, source, dest string) error {
	logger := logging.GetLogger("mirror")

	var lastErr error
	for attempt := 1; attempt <= iv.attempts; attempt++ {
		lastErr = iv.runner.Run(ctx, source, dest)
		if lastErr == nil {
			logger.Info().Str("source", source).Str("dest", dest).Int("attempt", attempt).Msg("Copy complete")
			return nil
		}
		logger.Warn().Str("dest", dest).Int("attempt", attempt).Err(lastErr).Msg("Copy tool failed, retrying")
	}

	return fmt.Errorf("%w: %s after %d attempts: %v", ErrCopyFailed, dest, iv.attempts, lastErr)
}
