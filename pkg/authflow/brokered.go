package authflow

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/ssoflow/pkg/observability"
	"github.com/platinummonkey/ssoflow/pkg/session"
)

// Brokered is the single sign-on flow: it first asks the trusted credential
// broker (modeled as a token cache shared with previously authorized
// applications) and only involves the user-facing fallback flow when the
// login behavior allows it.
type Brokered struct {
	broker   session.TokenCache
	fallback session.Flow
	deliver  Deliver
	logger   *observability.Logger
}

// NewBrokered creates the brokered flow. fallback may be nil when only
// SSOOnly behavior is ever used.
func NewBrokered(broker session.TokenCache, fallback session.Flow, deliver Deliver, logger *observability.Logger) *Brokered {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Brokered{
		broker:   broker,
		fallback: fallback,
		deliver:  deliver,
		logger:   logger,
	}
}

// Start implements session.Flow. Brokered credentials are delivered
// synchronously; everything else defers to the fallback flow or fails per
// the requested behavior.
func (b *Brokered) Start(ctx context.Context, req session.StartRequest) error {
	if req.Behavior == session.SuppressSSO {
		return b.startFallback(ctx, req)
	}

	if b.broker != nil {
		tok, err := b.broker.Load(ctx, req.ApplicationID)
		if err != nil {
			b.logger.WithError(err).Warn("credential broker lookup failed")
		}
		if tok.Valid(time.Now()) {
			b.logger.WithField("application_id", req.ApplicationID).Debug("serving brokered credentials")
			b.deliver(req.CorrelationCode, session.ResultOK, &session.AuthPayload{
				AccessToken: tok.AccessToken,
				ExpiresAt:   tok.ExpiresAt,
				Permissions: tok.Permissions,
			})
			return nil
		}
	}

	if req.Behavior == session.SSOOnly {
		b.deliver(req.CorrelationCode, session.ResultCanceled, &session.AuthPayload{Error: "no brokered credentials available"})
		return nil
	}
	return b.startFallback(ctx, req)
}

func (b *Brokered) startFallback(ctx context.Context, req session.StartRequest) error {
	if b.fallback == nil {
		return fmt.Errorf("no fallback flow configured")
	}
	return b.fallback.Start(ctx, req)
}
