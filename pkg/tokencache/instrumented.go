package tokencache

import (
	"context"

	"github.com/platinummonkey/ssoflow/pkg/observability"
	"github.com/platinummonkey/ssoflow/pkg/session"
)

// Instrumented wraps a token cache and records hit, miss and purge metrics
// labeled with the backend name
type Instrumented struct {
	next    session.TokenCache
	backend string
	metrics *observability.Metrics
}

// NewInstrumented wraps next with metric reporting. backend labels the
// emitted series ("memory", "redis", "postgres").
func NewInstrumented(next session.TokenCache, backend string, m *observability.Metrics) *Instrumented {
	return &Instrumented{next: next, backend: backend, metrics: m}
}

// Load implements session.TokenCache
func (i *Instrumented) Load(ctx context.Context, applicationID string) (*session.CachedToken, error) {
	tok, err := i.next.Load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if tok != nil {
		i.metrics.CacheHitsTotal.WithLabelValues(i.backend).Inc()
	} else {
		i.metrics.CacheMissesTotal.WithLabelValues(i.backend).Inc()
	}
	return tok, nil
}

// Save implements session.TokenCache
func (i *Instrumented) Save(ctx context.Context, applicationID string, token *session.CachedToken) error {
	return i.next.Save(ctx, applicationID, token)
}

// Clear implements session.TokenCache
func (i *Instrumented) Clear(ctx context.Context, applicationID string) error {
	if err := i.next.Clear(ctx, applicationID); err != nil {
		return err
	}
	i.metrics.CacheClearsTotal.WithLabelValues(i.backend).Inc()
	return nil
}
