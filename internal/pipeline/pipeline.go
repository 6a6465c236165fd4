package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/pricepal/internal/model"
)

// ErrStepSkipped is returned by a step whose input is missing, for example
// extraction after a failed fetch. The pipeline neither records it as an
// error nor lists the step as performed.
var ErrStepSkipped = errors.New("step skipped")

// Step is one stage of tracking a product.
type Step interface {
	// Do executes the step. Errors are recorded in the report by the pipeline.
	Do(ctx context.Context, report *model.TrackReport) error

	// Name returns the step's name for logging and PerformedSteps.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError keeps running later steps after one fails.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to run the remaining steps
// after a failure. Tracking uses it so a failed fetch still loads the
// previous price for the report.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a Pipeline with no steps.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps against report.
//
// The context is checked before each step. On cancellation the report is
// marked timed out and ctx.Err() is returned. Without continue-on-error the
// first step error is returned; with it, errors are only recorded in the
// report and Execute returns nil.
func (p *Pipeline) Execute(ctx context.Context, report *model.TrackReport) error {
	logger := p.logger.With("product", report.Product.Name)

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			logger.Warn("pipeline cancelled", "step", step.Name(), "reason", ctx.Err())
			report.TimedOut = true
			report.SetError(ctx.Err())
			return ctx.Err()
		default:
		}

		logger.Debug("executing step", "step", step.Name())

		err := step.Do(ctx, report)
		switch {
		case errors.Is(err, ErrStepSkipped):
			logger.Debug("step skipped", "step", step.Name())
			continue
		case err != nil:
			logger.Error("step failed", "step", step.Name(), "error", err)
			report.SetError(err)
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				report.TimedOut = true
			}
			if !p.continueOnError {
				report.PerformedSteps = append(report.PerformedSteps, step.Name())
				return err
			}
		default:
			logger.Debug("step completed", "step", step.Name())
		}

		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
