package wizard

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kingrea/pickapad/internal/form"
	"github.com/kingrea/pickapad/internal/validate"
)

// State is the controller's lifecycle phase.
type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
	StateFailed     State = "failed"
	StateDiscarded  State = "discarded"
)

// Outcome describes what a successful Next did.
type Outcome int

const (
	OutcomeAdvanced Outcome = iota + 1
	OutcomeSubmitted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdvanced:
		return "advanced"
	case OutcomeSubmitted:
		return "submitted"
	default:
		return "none"
	}
}

// Gateway receives the completed values on the final step.
type Gateway interface {
	Submit(ctx context.Context, values form.Values) error
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, values form.Values) error

func (f GatewayFunc) Submit(ctx context.Context, values form.Values) error {
	return f(ctx, values)
}

// Journal records user-facing progress lines.
type Journal interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

// Option customizes the controller.
type Option func(*Controller)

// WithStore uses an existing store instead of a fresh one.
func WithStore(store *form.Store) Option {
	return func(c *Controller) {
		if store != nil {
			c.store = store
		}
	}
}

// WithDefaults seeds a fresh store and is reapplied when the session is discarded.
func WithDefaults(defaults form.Values) Option {
	return func(c *Controller) {
		c.defaults = defaults.Clone()
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithJournal attaches a journey journal.
func WithJournal(j Journal) Option {
	return func(c *Controller) {
		c.journal = j
	}
}

// WithName labels log lines with the flow name.
func WithName(name string) Option {
	return func(c *Controller) {
		c.name = name
	}
}

// Controller walks a user through the steps of one wizard session.
type Controller struct {
	mu        sync.Mutex
	validator *validate.Validator
	gateway   Gateway
	store     *form.Store
	defaults  form.Values
	current   int
	state     State
	lastErr   error
	name      string
	logger    *zap.Logger
	journal   Journal
}

// New builds a controller positioned on step 1.
func New(steps []validate.Step, gateway Gateway, opts ...Option) (*Controller, error) {
	if gateway == nil {
		return nil, fmt.Errorf("wizard: gateway is required")
	}
	v, err := validate.New(steps)
	if err != nil {
		return nil, fmt.Errorf("wizard: %w", err)
	}
	c := &Controller{
		validator: v,
		gateway:   gateway,
		current:   1,
		state:     StateEditing,
		name:      "wizard",
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.store == nil {
		c.store = form.NewStore(c.defaults)
	}
	return c, nil
}

// Step returns the 1-based current step.
func (c *Controller) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clampedStep()
}

// TotalSteps returns the number of steps.
func (c *Controller) TotalSteps() int {
	return c.validator.Steps()
}

// Current returns the definition of the current step.
func (c *Controller) Current() validate.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	step, _ := c.validator.Step(c.clampedStep())
	return step
}

// Progress returns the completed fraction, current/total.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.clampedStep()) / float64(c.validator.Steps())
}

// State returns the lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the most recent submission failure, if the wizard is in
// the failed state.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Store exposes the field values.
func (c *Controller) Store() *form.Store {
	return c.store
}

// Set edits one field.
func (c *Controller) Set(field string, value form.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.store.Set(field, value)
	return nil
}

// Next validates the current step. Invalid input returns a *ValidationError and
// leaves the step unchanged. Valid input advances one step, or on the final
// step submits the values through the gateway. A gateway failure returns a
// *SubmissionError and leaves the wizard on the final step.
func (c *Controller) Next(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if err := c.checkOpen(); err != nil {
		c.mu.Unlock()
		return 0, err
	}
	c.current = c.clampedStep()
	step := c.current
	values := c.store.Snapshot()
	errs, err := c.validator.Validate(step, values)
	if err != nil {
		c.mu.Unlock()
		return 0, err
	}
	if len(errs) > 0 {
		c.store.SetErrors(errs)
		c.mu.Unlock()
		c.logger.Debug("step rejected",
			zap.String("flow", c.name),
			zap.Int("step", step),
			zap.Int("errors", len(errs)))
		return 0, &ValidationError{Step: step, Errors: errs}
	}
	c.store.ClearErrors()
	total := c.validator.Steps()
	if step < total {
		c.current = step + 1
		c.state = StateEditing
		c.lastErr = nil
		c.mu.Unlock()
		c.logger.Debug("step advanced", zap.String("flow", c.name), zap.Int("step", step+1))
		return OutcomeAdvanced, nil
	}
	c.state = StateSubmitting
	c.lastErr = nil
	c.mu.Unlock()

	c.logger.Info("submitting", zap.String("flow", c.name), zap.Int("fields", len(values)))
	c.journalInfo("%s · submitting %d fields", c.name, len(values))
	submitErr := c.gateway.Submit(ctx, values)

	c.mu.Lock()
	defer c.mu.Unlock()
	if submitErr != nil {
		c.state = StateFailed
		c.lastErr = &SubmissionError{Err: submitErr}
		c.logger.Warn("submission failed", zap.String("flow", c.name), zap.Error(submitErr))
		c.journalWarn("%s · submission failed: %v", c.name, submitErr)
		return 0, c.lastErr
	}
	c.state = StateSubmitted
	c.store.Reset(nil)
	c.logger.Info("submitted", zap.String("flow", c.name))
	c.journalInfo("%s · account created", c.name)
	return OutcomeSubmitted, nil
}

// Back moves to the previous step without validating. On step 1 it is a no-op.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.current = c.clampedStep()
	if c.current > 1 {
		c.current--
	}
	c.state = StateEditing
	c.lastErr = nil
	return nil
}

// Cancel discards the session, as when the user returns to account selection.
// The store is reset to the flow defaults. A closed session returns ErrClosed.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.state = StateDiscarded
	c.store.Reset(c.defaults)
	c.logger.Debug("session discarded", zap.String("flow", c.name), zap.Int("step", c.current))
	return nil
}

func (c *Controller) checkOpen() error {
	switch c.state {
	case StateSubmitting:
		return ErrSubmitting
	case StateSubmitted, StateDiscarded:
		return ErrClosed
	default:
		return nil
	}
}

// clampedStep keeps the step inside 1..total even if it was corrupted.
func (c *Controller) clampedStep() int {
	total := c.validator.Steps()
	switch {
	case c.current < 1:
		return 1
	case c.current > total:
		return total
	default:
		return c.current
	}
}

func (c *Controller) journalInfo(format string, args ...any) {
	if c.journal == nil {
		return
	}
	c.journal.Info(format, args...)
}

func (c *Controller) journalWarn(format string, args ...any) {
	if c.journal == nil {
		return
	}
	c.journal.Warn(format, args...)
}
