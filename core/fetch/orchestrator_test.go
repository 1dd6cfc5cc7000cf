package fetch

import (
	"context"
	"errors"
	"testing"

	"feedrelay-api/core/domain"
	coreerrors "feedrelay-api/core/errors"
)

// stubStrategy is a scripted strategy for orchestrator tests
type stubStrategy struct {
	name  string
	calls int
	raw   *domain.RawFeed
	err   error
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(ctx context.Context, feedURL string) (*domain.RawFeed, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.raw, nil
}

func TestRetrieve_FirstSuccessStopsSequence(t *testing.T) {
	first := &stubStrategy{name: "direct", err: &coreerrors.UpstreamError{URL: "u", StatusCode: 403}}
	second := &stubStrategy{name: "bridge", raw: &domain.RawFeed{Strategy: "bridge", Body: []byte("<rss/>")}}
	third := &stubStrategy{name: "aggregator", raw: &domain.RawFeed{Strategy: "aggregator"}}

	o := NewOrchestrator([]Strategy{first, second, third}, &mockLogger{})

	raw, err := o.Retrieve(context.Background(), "https://example.com/feed", Options{}, nil)
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if raw.Strategy != "bridge" {
		t.Errorf("Retrieve should return the first successful strategy's result, got %s", raw.Strategy)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Error("strategies 1..k should each be attempted exactly once")
	}
	if third.calls != 0 {
		t.Error("strategies after the first success must not be attempted")
	}
}

func TestRetrieve_ExhaustionReturnsRetrievalFailure(t *testing.T) {
	first := &stubStrategy{name: "direct", err: &coreerrors.UpstreamError{URL: "u", StatusCode: 403}}
	second := &stubStrategy{name: "bridge", err: &coreerrors.UpstreamError{URL: "u", StatusCode: 502}}

	o := NewOrchestrator([]Strategy{first, second}, &mockLogger{})

	_, err := o.Retrieve(context.Background(), "https://example.com/feed", Options{}, nil)

	failure, ok := coreerrors.AsRetrievalFailure(err)
	if !ok {
		t.Fatalf("expected RetrievalFailure, got %v", err)
	}
	if len(failure.Tried) != 2 {
		t.Errorf("Tried should list both strategies, got %v", failure.Tried)
	}
	if failure.Tried[0] != "direct" || failure.Tried[1] != "bridge" {
		t.Errorf("Tried should preserve strategy order, got %v", failure.Tried)
	}
	if failure.LastStatus != 502 {
		t.Errorf("LastStatus should be the most recent upstream status, got %d", failure.LastStatus)
	}
}

func TestRetrieve_AcceptFailureFallsThrough(t *testing.T) {
	first := &stubStrategy{name: "direct", raw: &domain.RawFeed{Strategy: "direct", Body: []byte("<?xml but broken")}}
	second := &stubStrategy{name: "bridge", raw: &domain.RawFeed{Strategy: "bridge", Body: []byte("<rss/>")}}

	o := NewOrchestrator([]Strategy{first, second}, &mockLogger{})

	accepted := make([]string, 0, 2)
	raw, err := o.Retrieve(context.Background(), "https://example.com/feed", Options{}, func(raw *domain.RawFeed) error {
		accepted = append(accepted, raw.Strategy)
		if raw.Strategy == "direct" {
			return &coreerrors.ParseError{URL: "https://example.com/feed", Message: "unparseable"}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if raw.Strategy != "bridge" {
		t.Errorf("result should come from the strategy that passed acceptance, got %s", raw.Strategy)
	}
	if len(accepted) != 2 {
		t.Errorf("accept should run once per candidate result, ran %d times", len(accepted))
	}
}

func TestRetrieve_ForcedStrategyOnlyTriesThatStrategy(t *testing.T) {
	first := &stubStrategy{name: "direct", raw: &domain.RawFeed{Strategy: "direct"}}
	second := &stubStrategy{name: "bridge", err: &coreerrors.UpstreamError{URL: "u", StatusCode: 500}}

	o := NewOrchestrator([]Strategy{first, second}, &mockLogger{})

	_, err := o.Retrieve(context.Background(), "https://example.com/feed", Options{Strategy: "bridge"}, nil)

	if _, ok := coreerrors.AsRetrievalFailure(err); !ok {
		t.Fatalf("expected RetrievalFailure for forced failing strategy, got %v", err)
	}
	if first.calls != 0 {
		t.Error("forcing a strategy must not attempt the others")
	}
	if second.calls != 1 {
		t.Errorf("forced strategy should be attempted once, was %d", second.calls)
	}
}

func TestRetrieve_UnknownForcedStrategyIsInputError(t *testing.T) {
	o := NewOrchestrator([]Strategy{&stubStrategy{name: "direct"}}, &mockLogger{})

	_, err := o.Retrieve(context.Background(), "https://example.com/feed", Options{Strategy: "nope"}, nil)

	if !coreerrors.IsInput(err) {
		t.Errorf("expected InputError for unknown strategy, got %v", err)
	}
}

func TestRetrieve_LogsEachFailure(t *testing.T) {
	logger := &mockLogger{}
	first := &stubStrategy{name: "direct", err: errors.New("boom")}
	second := &stubStrategy{name: "bridge", raw: &domain.RawFeed{Strategy: "bridge"}}

	o := NewOrchestrator([]Strategy{first, second}, logger)

	if _, err := o.Retrieve(context.Background(), "https://example.com/feed", Options{}, nil); err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if len(logger.warnings) != 1 {
		t.Errorf("each strategy failure should be logged once, got %d warnings", len(logger.warnings))
	}
}

func TestRetrieve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator([]Strategy{&stubStrategy{name: "direct"}}, &mockLogger{})

	_, err := o.Retrieve(ctx, "https://example.com/feed", Options{}, nil)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStrategyNames(t *testing.T) {
	o := NewOrchestrator([]Strategy{
		&stubStrategy{name: "direct"},
		&stubStrategy{name: "bridge"},
	}, nil)

	names := o.StrategyNames()

	if len(names) != 2 || names[0] != "direct" || names[1] != "bridge" {
		t.Errorf("StrategyNames should preserve order, got %v", names)
	}
}
