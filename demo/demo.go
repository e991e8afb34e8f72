package demo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/marcelsud/timeherenow-example/apiclient"
	"github.com/marcelsud/timeherenow-example/sdk"
	"github.com/marcelsud/timeherenow-example/webhook/signature"
	"github.com/rs/zerolog"
)

// StepResult is the outcome of one step of a run
type StepResult struct {
	Name     string         `json:"name"`
	Success  bool           `json:"success"`
	Summary  map[string]any `json:"summary,omitempty"`
	Duration time.Duration  `json:"duration"`
	Error    string         `json:"error,omitempty"`
}

// Report groups the results of one run, in execution order
type Report struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Steps      []StepResult `json:"steps"`
}

// Succeeded reports whether every executed step succeeded
func (r Report) Succeeded() bool {
	for _, s := range r.Steps {
		if !s.Success {
			return false
		}
	}
	return true
}

// StepError names the step that aborted a run
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("demo step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ErrUnknownStep is returned by RunOnly for names that are not steps
var ErrUnknownStep = errors.New("unknown demo step")

// Caller performs one authenticated API call
type Caller interface {
	Call(ctx context.Context, path string, body any, token string, opts ...apiclient.CallOption) (apiclient.Result, error)
}

// RunRecorder is notified when a run starts
type RunRecorder interface {
	RecordRun()
}

/* Orchestrator runs the fixed sequence of SDK demonstration steps.
 * Steps run strictly one after the other and the first failure aborts
 * the run. Nothing is retried.
 */
type Orchestrator struct {
	client   sdk.Client
	api      Caller
	logger   zerolog.Logger
	secret   *signature.Secret
	recorder RunRecorder
	now      func() time.Time
}

type Option func(*Orchestrator)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithSigningSecret makes the webhooks step sign its example payload
func WithSigningSecret(secret *signature.Secret) Option {
	return func(o *Orchestrator) {
		o.secret = secret
	}
}

func WithRunRecorder(r RunRecorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

func New(client sdk.Client, api Caller, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client: client,
		api:    api,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes every step in order
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	return o.run(ctx, o.Steps())
}

// RunOnly executes the named steps, keeping the fixed order
func (o *Orchestrator) RunOnly(ctx context.Context, names ...string) (Report, error) {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var selected []Step
	for _, s := range o.Steps() {
		if wanted[s.Name] {
			selected = append(selected, s)
			delete(wanted, s.Name)
		}
	}
	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for n := range wanted {
			unknown = append(unknown, n)
		}
		sort.Strings(unknown)
		return Report{}, fmt.Errorf("%w: %s", ErrUnknownStep, strings.Join(unknown, ", "))
	}
	return o.run(ctx, selected)
}

func (o *Orchestrator) run(ctx context.Context, steps []Step) (Report, error) {
	if o.recorder != nil {
		o.recorder.RecordRun()
	}

	report := Report{StartedAt: o.now().UTC()}

	o.logger.Info().Int("steps", len(steps)).Msg("demo run started")

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = o.now().UTC()
			return report, &StepError{Step: step.Name, Err: err}
		}

		start := o.now()
		summary, err := step.Run(ctx, o)
		result := StepResult{
			Name:     step.Name,
			Success:  err == nil,
			Summary:  summary,
			Duration: o.now().Sub(start),
		}

		if err != nil {
			result.Error = err.Error()
			report.Steps = append(report.Steps, result)
			report.FinishedAt = o.now().UTC()

			o.logger.Error().
				Err(err).
				Str("step", step.Name).
				Dur("duration", result.Duration).
				Interface("error_detail", errorDetail(err)).
				Msg("demo step failed")

			return report, &StepError{Step: step.Name, Err: err}
		}

		report.Steps = append(report.Steps, result)
		o.logger.Info().
			Str("step", step.Name).
			Dur("duration", result.Duration).
			Fields(summary).
			Msg("demo step completed")
	}

	report.FinishedAt = o.now().UTC()
	o.logger.Info().Int("steps", len(report.Steps)).Msg("demo run completed")
	return report, nil
}

// errorDetail exposes the status and body of API failures in logs
func errorDetail(err error) map[string]any {
	detail := map[string]any{"message": err.Error()}
	var statusErr *apiclient.StatusError
	if errors.As(err, &statusErr) {
		detail["status"] = statusErr.Status
		detail["body"] = statusErr.Body
	}
	var transportErr *apiclient.TransportError
	if errors.As(err, &transportErr) {
		detail["method"] = transportErr.Method
		detail["path"] = transportErr.Path
	}
	return detail
}

// token logs in again; every step that calls the API derives its own token
func (o *Orchestrator) token(ctx context.Context) (string, error) {
	res, err := o.client.Login(ctx)
	if err != nil {
		return "", fmt.Errorf("logging in: %w", err)
	}
	if res.Token == "" {
		return "", sdk.ErrNoToken
	}
	return res.Token, nil
}

// call performs one API call and decodes a 2xx JSON response into out
func (o *Orchestrator) call(ctx context.Context, token, path string, body, out any, opts ...apiclient.CallOption) error {
	res, err := o.api.Call(ctx, path, body, token, opts...)
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := res.Decode(out); err != nil {
		return fmt.Errorf("unexpected response from %s: %w", path, err)
	}
	return nil
}
