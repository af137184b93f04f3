package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
	"github.com/custodia-labs/pitwall/internal/logger"
)

// RouterConfig configures knowledge source routing.
type RouterConfig struct {
	// Timeout bounds each individual source call.
	// Defaults to domain.DefaultRetrievalTimeout.
	Timeout time.Duration

	// FetchLimit is how many items to request from each source.
	// Defaults to domain.DefaultMaxContextItems.
	FetchLimit int
}

// RouterService maps a classification to the knowledge sources it
// requires and queries them, concurrently when more than one is needed.
//
// A failing source never sinks the request: it yields a FAILED result
// with no items, and the answer degrades downstream. The router errors
// only when every required source fails.
type RouterService struct {
	corpus  driven.CorpusSearcher
	live    driven.LiveDataSource
	timeout time.Duration
	limit   int
}

// NewRouterService creates a new retrieval router.
// The live parameter is optional (can be nil); live-data calls then fail
// as unconfigured and answers degrade accordingly.
func NewRouterService(corpus driven.CorpusSearcher, live driven.LiveDataSource, cfg RouterConfig) *RouterService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultRetrievalTimeout
	}
	limit := cfg.FetchLimit
	if limit <= 0 {
		limit = domain.DefaultMaxContextItems
	}

	return &RouterService{
		corpus:  corpus,
		live:    live,
		timeout: timeout,
		limit:   limit,
	}
}

// Route queries every knowledge source the classification requires and
// returns one RetrievalResult per source, in the order the labels demand
// them. A general classification issues a best-effort corpus probe whose
// failure is tolerated silently.
//
// Returns domain.ErrRetrievalUnavailable (alongside the results) only
// when all required sources failed.
func (r *RouterService) Route(
	ctx context.Context, query string, classification domain.Classification,
) ([]domain.RetrievalResult, error) {
	logger.Section("Retrieval Routing")

	plan := r.buildPlan(classification)
	if len(plan) == 0 {
		logger.Debug("No sources to query")
		return nil, nil
	}
	logger.Debug("Plan: %d source(s), timeout=%s per call", len(plan), r.timeout)

	results := make([]domain.RetrievalResult, len(plan))

	if len(plan) == 1 {
		results[0] = r.querySource(ctx, query, plan[0])
	} else {
		// Concurrent fan-out: total latency is bounded by the slowest
		// call, not the sum.
		var wg sync.WaitGroup
		wg.Add(len(plan))
		for i, call := range plan {
			go func(slot int, call plannedCall) {
				defer wg.Done()
				results[slot] = r.querySource(ctx, query, call)
			}(i, call)
		}
		wg.Wait()
	}

	requiredCount := 0
	failedCount := 0
	for _, res := range results {
		logger.Info("Source %s: status=%s items=%d elapsed=%s",
			res.Kind, res.Status, len(res.Items), res.Elapsed.Round(time.Millisecond))
		if !res.Required {
			continue
		}
		requiredCount++
		if res.Failed() {
			failedCount++
		}
	}

	if requiredCount > 0 && failedCount == requiredCount {
		logger.Warn("All %d required source(s) failed", requiredCount)
		return results, fmt.Errorf("all required sources failed: %w", domain.ErrRetrievalUnavailable)
	}

	return results, nil
}

// plannedCall is one source call the router has decided to make.
type plannedCall struct {
	kind     domain.SourceKind
	required bool
}

// buildPlan derives the source calls from the classification, preserving
// label order. IntentGeneral gets a non-required corpus probe so even
// chit-chat can be grounded when the corpus has something to offer.
func (r *RouterService) buildPlan(classification domain.Classification) []plannedCall {
	required := classification.RequiredSources()

	plan := make([]plannedCall, 0, len(required))
	for _, kind := range required {
		plan = append(plan, plannedCall{kind: kind, required: true})
	}

	if len(plan) == 0 && classification.Has(domain.IntentGeneral) {
		plan = append(plan, plannedCall{kind: domain.SourceStaticCorpus, required: false})
	}

	return plan
}

// querySource performs one bounded source call and folds every outcome
// into a RetrievalResult. Timeouts and errors become FAILED results, not
// returned errors. A timed-out call is never retried within the request.
func (r *RouterService) querySource(
	ctx context.Context, query string, call plannedCall,
) domain.RetrievalResult {
	result := domain.RetrievalResult{
		Kind:     call.kind,
		Required: call.required,
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	items, err := r.dispatch(callCtx, query, call.kind)
	result.Elapsed = time.Since(start)
	result.Items = items

	switch {
	case err == nil:
		result.Status = domain.RetrievalOK

	case len(items) > 0:
		// The source got partway there; keep what it managed.
		result.Status = domain.RetrievalPartial
		result.Err = err.Error()
		logger.Warn("Source %s partially failed: %v", call.kind, err)

	default:
		result.Status = domain.RetrievalFailed
		result.Err = err.Error()
		logger.Warn("Source %s failed: %v", call.kind, err)
	}

	return result
}

// dispatch routes one call to the adapter behind the source kind.
func (r *RouterService) dispatch(
	ctx context.Context, query string, kind domain.SourceKind,
) ([]domain.RetrievedItem, error) {
	switch kind {
	case domain.SourceStaticCorpus:
		if r.corpus == nil {
			return nil, fmt.Errorf("static corpus: %w", domain.ErrSourceUnavailable)
		}
		return r.corpus.Search(ctx, query, r.limit)

	case domain.SourceLiveData:
		if r.live == nil {
			return nil, fmt.Errorf("live data not configured: %w", domain.ErrSourceUnavailable)
		}
		return r.live.Query(ctx, query, r.limit)

	default:
		return nil, fmt.Errorf("unknown source kind %q: %w", kind, domain.ErrSourceUnavailable)
	}
}
