package account

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kingrea/pickapad/internal/form"
	"github.com/kingrea/pickapad/internal/session"
	"github.com/kingrea/pickapad/internal/signup"
)

// Gateway submits one flow's completed values and signs the new user in.
type Gateway struct {
	flow     signup.AccountType
	service  *Service
	sessions *session.Context
	logger   *zap.Logger

	last Result
}

// NewGateway returns the submission gateway for flow t.
func NewGateway(t signup.AccountType, service *Service, sessions *session.Context, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{flow: t, service: service, sessions: sessions, logger: logger}
}

// Submit implements wizard.Gateway.
func (g *Gateway) Submit(ctx context.Context, values form.Values) error {
	payload, err := signup.BuildPayload(g.flow, values)
	if err != nil {
		return err
	}
	res, err := g.service.Create(ctx, payload)
	if err != nil {
		return err
	}
	if g.sessions != nil {
		if err := g.sessions.Begin(res.Token, res.User.Profile()); err != nil {
			// Undo the insert so a retry from the final step starts clean.
			if rerr := g.service.Remove(context.WithoutCancel(ctx), res.User.ID); rerr != nil {
				g.logger.Error("roll back account", zap.String("id", res.User.ID), zap.Error(rerr))
			}
			return fmt.Errorf("account: start session: %w", err)
		}
	}
	g.last = res
	g.logger.Debug("signup submitted", zap.String("account_type", string(g.flow)), zap.String("id", res.User.ID))
	return nil
}

// Result returns the outcome of the last successful submission.
func (g *Gateway) Result() Result {
	return g.last
}
