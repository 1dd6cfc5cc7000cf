// ABOUTME: Resilient fetch orchestrator tries retrieval strategies in order
// ABOUTME: Falls through on any strategy failure, fails only once the list is exhausted

package fetch

import (
	"context"
	"errors"

	"feedrelay-api/core/domain"
	coreerrors "feedrelay-api/core/errors"
	"feedrelay-api/core/interfaces"
)

// AcceptFunc validates a strategy's raw result before the orchestrator
// commits to it. A non-nil error counts as that strategy's failure and the
// orchestrator moves on to the next one. This is how a downstream
// ParseError re-enters the fallback sequence.
type AcceptFunc func(raw *domain.RawFeed) error

// Options controls a single retrieval.
type Options struct {
	// Strategy forces a single named strategy. Empty or "auto" lets the
	// orchestrator walk the configured fallback order.
	Strategy string
}

// Orchestrator walks an ordered list of retrieval strategies until one
// yields content recognized as feed data. Strategies run sequentially per
// request: each is a fallback for the previous, and running them in
// parallel would waste quota on aggregator services.
type Orchestrator struct {
	strategies []Strategy
	logger     interfaces.Logger
}

// NewOrchestrator creates an orchestrator over the given strategies in
// fallback order.
func NewOrchestrator(strategies []Strategy, logger interfaces.Logger) *Orchestrator {
	return &Orchestrator{
		strategies: strategies,
		logger:     logger,
	}
}

// StrategyNames returns the configured strategy names in fallback order.
func (o *Orchestrator) StrategyNames() []string {
	names := make([]string, 0, len(o.strategies))
	for _, s := range o.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Retrieve tries strategies in order until one succeeds and, when accept is
// non-nil, its result passes acceptance. It never fails on a partial
// failure; a RetrievalFailure is returned only when the configured list is
// exhausted.
func (o *Orchestrator) Retrieve(ctx context.Context, feedURL string, opts Options, accept AcceptFunc) (*domain.RawFeed, error) {
	strategies, err := o.selectStrategies(opts)
	if err != nil {
		return nil, err
	}

	tried := make([]string, 0, len(strategies))
	lastStatus := 0

	for _, strategy := range strategies {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		tried = append(tried, strategy.Name())

		raw, err := strategy.Fetch(ctx, feedURL)
		if err != nil {
			var upstreamErr *coreerrors.UpstreamError
			if errors.As(err, &upstreamErr) && upstreamErr.StatusCode > 0 {
				lastStatus = upstreamErr.StatusCode
			}
			o.logFailure(strategy.Name(), feedURL, err)
			continue
		}

		if accept != nil {
			if err := accept(raw); err != nil {
				o.logFailure(strategy.Name(), feedURL, err)
				continue
			}
		}

		if o.logger != nil {
			o.logger.Debug("strategy succeeded", map[string]interface{}{
				"strategy": strategy.Name(),
				"url":      feedURL,
			})
		}
		return raw, nil
	}

	return nil, &coreerrors.RetrievalFailure{
		URL:        feedURL,
		Tried:      tried,
		LastStatus: lastStatus,
	}
}

func (o *Orchestrator) selectStrategies(opts Options) ([]Strategy, error) {
	if opts.Strategy == "" || opts.Strategy == "auto" {
		return o.strategies, nil
	}

	for _, strategy := range o.strategies {
		if strategy.Name() == opts.Strategy {
			return []Strategy{strategy}, nil
		}
	}
	return nil, &coreerrors.InputError{Field: "strategy", Message: "unknown strategy: " + opts.Strategy}
}

func (o *Orchestrator) logFailure(strategy, feedURL string, err error) {
	if o.logger == nil {
		return
	}
	o.logger.Warn("strategy failed, falling through", map[string]interface{}{
		"strategy": strategy,
		"url":      feedURL,
		"error":    err.Error(),
	})
}
