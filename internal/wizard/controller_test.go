package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/kingrea/pickapad/internal/form"
	"github.com/kingrea/pickapad/internal/signup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingGateway struct {
	err   error
	calls int
	last  form.Values
}

func (g *recordingGateway) Submit(_ context.Context, values form.Values) error {
	g.calls++
	g.last = values
	return g.err
}

func newCompanyWizard(t *testing.T, gw Gateway) *Controller {
	t.Helper()
	flow := signup.CompanyFlow(signup.DefaultOptions())
	c, err := New(flow.Steps, gw, WithDefaults(flow.Defaults), WithName("company"))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return c
}

func mustSet(t *testing.T, c *Controller, field string, v form.Value) {
	t.Helper()
	if err := c.Set(field, v); err != nil {
		t.Fatalf("set %s: %v", field, err)
	}
}

func mustNext(t *testing.T, c *Controller) Outcome {
	t.Helper()
	out, err := c.Next(context.Background())
	if err != nil {
		t.Fatalf("next on step %d: %v", c.Step(), err)
	}
	return out
}

// fillCompany completes every company step and leaves the wizard on step 8.
func fillCompany(t *testing.T, c *Controller) {
	t.Helper()
	mustSet(t, c, "companyName", form.Text("Acme LLC"))
	mustNext(t, c)
	mustSet(t, c, "ein", form.Text("12-3456789"))
	mustNext(t, c)
	mustSet(t, c, "companyEmail", form.Text("office@acme.com"))
	mustSet(t, c, "companyPhone", form.Text("(512) 555-0134"))
	mustNext(t, c)
	mustSet(t, c, "propertiesUnderManagement", form.Text("11-50"))
	mustSet(t, c, "propertiesOwned", form.Text("4"))
	mustNext(t, c)
	mustSet(t, c, "businessType", form.Text("LLC"))
	mustNext(t, c)
	mustSet(t, c, "contactName", form.Text("Dana Reyes"))
	mustSet(t, c, "contactEmail", form.Text("dana@acme.com"))
	mustNext(t, c)
	mustSet(t, c, "password", form.Text("Abcdef1!"))
	mustSet(t, c, "confirmPassword", form.Text("Abcdef1!"))
	mustNext(t, c)
	mustSet(t, c, "termsAccepted", form.Bool(true))
	mustSet(t, c, "privacyAccepted", form.Bool(true))
	mustSet(t, c, "companyEmailOnlyLogin", form.Bool(true))
	if c.Step() != 8 {
		t.Fatalf("expected to be on step 8, got %d", c.Step())
	}
}

func TestCompanyScenarioBlocksMalformedEIN(t *testing.T) {
	c := newCompanyWizard(t, &recordingGateway{})
	if c.Step() != 1 || c.TotalSteps() != 8 {
		t.Fatalf("expected step 1 of 8, got %d of %d", c.Step(), c.TotalSteps())
	}
	mustSet(t, c, "companyName", form.Text("Acme LLC"))
	if out := mustNext(t, c); out != OutcomeAdvanced || c.Step() != 2 {
		t.Fatalf("expected advance to step 2, got %s step %d", out, c.Step())
	}

	mustSet(t, c, "ein", form.Text("12345"))
	_, err := c.Next(context.Background())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Field("ein"); !ok {
		t.Fatalf("expected ein error, got %v", verr.Errors)
	}
	if c.Step() != 2 {
		t.Fatalf("step moved to %d after failed validation", c.Step())
	}
	if _, ok := c.Store().Error("ein"); !ok {
		t.Fatalf("expected ein error to be kept in the store")
	}

	mustSet(t, c, "ein", form.Text("12-3456789"))
	if _, ok := c.Store().Error("ein"); ok {
		t.Fatalf("editing ein should clear its error")
	}
	mustNext(t, c)
	if c.Step() != 3 {
		t.Fatalf("expected step 3, got %d", c.Step())
	}
}

func TestBackFloorsAtOneAndSkipsValidation(t *testing.T) {
	c := newCompanyWizard(t, &recordingGateway{})
	if err := c.Back(); err != nil {
		t.Fatalf("back: %v", err)
	}
	if c.Step() != 1 {
		t.Fatalf("back on step 1 moved to %d", c.Step())
	}
	mustSet(t, c, "companyName", form.Text("Acme LLC"))
	mustNext(t, c)
	mustSet(t, c, "ein", form.Text("bad"))
	if err := c.Back(); err != nil {
		t.Fatalf("back with invalid step: %v", err)
	}
	if c.Step() != 1 {
		t.Fatalf("expected step 1, got %d", c.Step())
	}
}

func TestValuesSurviveBackAndForth(t *testing.T) {
	c := newCompanyWizard(t, &recordingGateway{})
	fillCompany(t, c)
	before := c.Store().Snapshot()
	for c.Step() > 1 {
		if err := c.Back(); err != nil {
			t.Fatalf("back: %v", err)
		}
	}
	if got := c.Store().Get("companyName").String(); got != "Acme LLC" {
		t.Fatalf("companyName lost after navigation: %q", got)
	}
	for c.Step() < 8 {
		mustNext(t, c)
	}
	after := c.Store().Snapshot()
	for field, v := range before {
		if !after.Get(field).Equal(v) {
			t.Fatalf("%s changed from %q to %q", field, v, after.Get(field))
		}
	}
}

func TestBackThenNextIsIdempotent(t *testing.T) {
	c := newCompanyWizard(t, &recordingGateway{})
	mustSet(t, c, "companyName", form.Text("Acme LLC"))
	mustNext(t, c)
	mustSet(t, c, "ein", form.Text("12-3456789"))
	mustNext(t, c)
	before := c.Store().Snapshot()
	if err := c.Back(); err != nil {
		t.Fatalf("back: %v", err)
	}
	mustNext(t, c)
	if c.Step() != 3 {
		t.Fatalf("expected to return to step 3, got %d", c.Step())
	}
	after := c.Store().Snapshot()
	if len(after) != len(before) {
		t.Fatalf("field count changed: %d -> %d", len(before), len(after))
	}
	for field, v := range before {
		if !after.Get(field).Equal(v) {
			t.Fatalf("%s changed", field)
		}
	}
}

func TestFailedSubmissionKeepsFinalStepAndValues(t *testing.T) {
	gw := &recordingGateway{err: errors.New("network unreachable")}
	c := newCompanyWizard(t, gw)
	fillCompany(t, c)

	_, err := c.Next(context.Background())
	var serr *SubmissionError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if c.Step() != 8 {
		t.Fatalf("expected to stay on step 8, got %d", c.Step())
	}
	if c.State() != StateFailed || c.LastError() == nil {
		t.Fatalf("expected failed state with error, got %s %v", c.State(), c.LastError())
	}
	if got := c.Store().Get("companyName").String(); got != "Acme LLC" {
		t.Fatalf("companyName lost after failure: %q", got)
	}

	gw.err = nil
	out, err := c.Next(context.Background())
	if err != nil || out != OutcomeSubmitted {
		t.Fatalf("retry: %s %v", out, err)
	}
	if gw.calls != 2 {
		t.Fatalf("gateway calls = %d, want 2", gw.calls)
	}
	if gw.last.Text("ein") != "12-3456789" {
		t.Fatalf("gateway received ein %q", gw.last.Text("ein"))
	}
	if c.State() != StateSubmitted {
		t.Fatalf("state = %s", c.State())
	}
	if _, err := c.Next(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after submission, got %v", err)
	}
	if _, ok := c.Store().Lookup("companyName"); ok {
		t.Fatalf("session values should be discarded after submission")
	}
}

func TestNextNeverPassesTotal(t *testing.T) {
	gw := &recordingGateway{err: errors.New("down")}
	c := newCompanyWizard(t, gw)
	fillCompany(t, c)
	for i := 0; i < 3; i++ {
		_, _ = c.Next(context.Background())
		if c.Step() != 8 {
			t.Fatalf("step went to %d", c.Step())
		}
	}
}

func TestInputLockedWhileSubmitting(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	gw := GatewayFunc(func(ctx context.Context, _ form.Values) error {
		close(entered)
		<-release
		return nil
	})
	c := newCompanyWizard(t, gw)
	fillCompany(t, c)

	done := make(chan error, 1)
	go func() {
		_, err := c.Next(context.Background())
		done <- err
	}()
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("gateway never called")
	}
	if c.State() != StateSubmitting {
		t.Fatalf("state = %s, want submitting", c.State())
	}
	if err := c.Back(); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("back during submit: %v", err)
	}
	if _, err := c.Next(context.Background()); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("next during submit: %v", err)
	}
	if err := c.Set("companyName", form.Text("Other")); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("set during submit: %v", err)
	}
	if err := c.Cancel(); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("cancel during submit: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("submission: %v", err)
	}
}

func TestCancelDiscardsSession(t *testing.T) {
	c := newCompanyWizard(t, &recordingGateway{})
	mustSet(t, c, "companyName", form.Text("Acme LLC"))
	if err := c.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if c.State() != StateDiscarded {
		t.Fatalf("state = %s", c.State())
	}
	if err := c.Set("companyName", form.Text("x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := c.Cancel(); !errors.Is(err, ErrClosed) {
		t.Fatalf("second cancel: expected ErrClosed, got %v", err)
	}
}

func TestCancelRestoresFlowDefaults(t *testing.T) {
	c := newCompanyWizard(t, &recordingGateway{})
	mustSet(t, c, "companyName", form.Text("Acme LLC"))
	mustSet(t, c, "contactState", form.Text("Ohio"))
	if err := c.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := c.Store().Get("contactState").String(); got != signup.DefaultOptions().DefaultState {
		t.Fatalf("contactState = %q after cancel, want the flow default", got)
	}
	if v := c.Store().Get("companyName"); !v.IsZero() {
		t.Fatalf("companyName survived cancel: %q", v)
	}
	if c.Store().Dirty("contactState") {
		t.Fatalf("store still dirty after cancel")
	}
}

func TestCancelAfterSubmitIsClosed(t *testing.T) {
	c := newCompanyWizard(t, &recordingGateway{})
	fillCompany(t, c)
	if out := mustNext(t, c); out != OutcomeSubmitted {
		t.Fatalf("expected submission, got %s", out)
	}
	if err := c.Cancel(); !errors.Is(err, ErrClosed) {
		t.Fatalf("cancel after submit: expected ErrClosed, got %v", err)
	}
	if c.State() != StateSubmitted {
		t.Fatalf("state = %s, want submitted", c.State())
	}
}

func TestOutOfRangeStepIsClamped(t *testing.T) {
	c := newCompanyWizard(t, &recordingGateway{})
	c.current = 42
	if c.Step() != 8 {
		t.Fatalf("expected clamp to 8, got %d", c.Step())
	}
	c.current = -3
	if c.Step() != 1 {
		t.Fatalf("expected clamp to 1, got %d", c.Step())
	}
	if err := c.Back(); err != nil || c.Step() != 1 {
		t.Fatalf("back after clamp: %v step %d", err, c.Step())
	}
}

func TestNewRequiresGateway(t *testing.T) {
	flow := signup.CompanyFlow(signup.DefaultOptions())
	if _, err := New(flow.Steps, nil); err == nil {
		t.Fatalf("expected error without gateway")
	}
}
