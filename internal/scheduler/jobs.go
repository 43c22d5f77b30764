package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/couchcryptid/star-dimension-etl/internal/domain"
)

// Job is one step of a scheduled run.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// DimensionRunner is satisfied by *pipeline.Generator.
type DimensionRunner interface {
	Run(ctx context.Context) (domain.Dimensions, error)
}

// GenerateJob runs the in-process dimension generator.
type GenerateJob struct {
	runner DimensionRunner
}

// NewGenerateJob wraps runner as a scheduler job.
func NewGenerateJob(runner DimensionRunner) *GenerateJob {
	return &GenerateJob{runner: runner}
}

// Name identifies the job in logs and metrics.
func (j *GenerateJob) Name() string { return "generate_dimensions" }

// Run performs one generation run and discards the generated dimensions.
func (j *GenerateJob) Run(ctx context.Context) error {
	_, err := j.runner.Run(ctx)
	return err
}

// CommandJob runs the external batch job through bash. The job's output is
// streamed to the configured writers.
type CommandJob struct {
	command string
	timeout time.Duration
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
}

// NewCommandJob creates a job that runs command with "bash -c". A zero
// timeout means the job may run until the run context is cancelled.
func NewCommandJob(command string, timeout time.Duration, stdout, stderr io.Writer, logger *slog.Logger) *CommandJob {
	return &CommandJob{
		command: command,
		timeout: timeout,
		stdout:  stdout,
		stderr:  stderr,
		logger:  logger,
	}
}

// Name identifies the job in logs and metrics.
func (j *CommandJob) Name() string { return "external_batch" }

// Run executes the command and waits for it to exit. A timeout is reported
// wrapping context.DeadlineExceeded; a non-zero exit wraps *exec.ExitError.
func (j *CommandJob) Run(ctx context.Context) error {
	runCtx := ctx
	if j.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, "bash", "-c", j.command)
	cmd.Stdout = j.stdout
	cmd.Stderr = j.stderr

	j.logger.Info("starting external job", "command", j.command)
	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil && ctx.Err() == nil {
			return fmt.Errorf("external job timed out after %s: %w", j.timeout, runCtx.Err())
		}
		return fmt.Errorf("external job: %w", err)
	}
	return nil
}
