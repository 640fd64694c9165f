// Package search runs the dual-language generation flow: two independent
// language pipelines in parallel, each with ordered provider fallback,
// merged into one bilingual payload and written back to the cache.
package search

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/opentoolhub/search-agent/internal/cache"
	"github.com/opentoolhub/search-agent/internal/llm"
	"github.com/opentoolhub/search-agent/internal/models"
)

const defaultProviderTimeout = 60 * time.Second

// Outcome is a finished generation: the merged bilingual payload plus the
// per-language provider call telemetry.
type Outcome struct {
	Payload models.Payload
	Partial bool
	Calls   []models.ProviderCallRecord
}

type Orchestrator struct {
	providers       []llm.Provider
	store           cache.Store
	providerTimeout time.Duration
	cacheTTL        time.Duration
	logger          *zerolog.Logger
}

type Option func(*Orchestrator)

func WithProviderTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.providerTimeout = d }
}

func WithCacheTTL(d time.Duration) Option {
	return func(o *Orchestrator) { o.cacheTTL = d }
}

// New builds an orchestrator over the given providers, tried in order; the
// first provider is preferred for latency.
func New(providers []llm.Provider, store cache.Store, logger *zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		providers:       providers,
		store:           store,
		providerTimeout: defaultProviderTimeout,
		cacheTTL:        cache.DefaultTTL,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate runs both language pipelines for a cache miss and returns the
// merged bilingual payload. It deliberately detaches from the request
// context: even if the caller disconnects, the work completes and the cache
// write lands so future requests benefit.
func (o *Orchestrator) Generate(ctx context.Context, normalizedKey string, rawInput string) (*Outcome, error) {
	base := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	var zhResult, enResult models.Payload
	var zhCall, enCall models.ProviderCallRecord

	wg.Add(2)
	go func() {
		defer wg.Done()
		zhResult, zhCall = o.runPipeline(base, models.LanguageZH, rawInput)
	}()
	go func() {
		defer wg.Done()
		enResult, enCall = o.runPipeline(base, models.LanguageEN, rawInput)
	}()
	wg.Wait()

	calls := []models.ProviderCallRecord{zhCall, enCall}

	if zhResult == nil && enResult == nil {
		o.logger.Error().Str("key", normalizedKey).Msg("all providers failed in both languages")
		return nil, &models.GenerationError{Details: models.GenerationDetails{
			ZHSuccess:      false,
			ENSuccess:      false,
			HasDeepSeekKey: o.hasProvider("deepseek"),
			HasVolcArkKey:  o.hasProvider("volc_ark"),
		}}
	}

	// Graceful degradation: a single surviving language is duplicated into
	// both slots so the user gets a result, at the cost of language fidelity.
	finalZH := zhResult
	finalEN := enResult
	partial := zhResult == nil || enResult == nil
	if finalZH == nil {
		finalZH = enResult
	}
	if finalEN == nil {
		finalEN = zhResult
	}

	merged := make(models.Payload, len(finalZH)+3)
	for k, v := range finalZH {
		merged[k] = v
	}
	merged["zh"] = finalZH
	merged["en"] = finalEN
	merged["_partialTranslation"] = partial

	// Partial payloads are cached at the full TTL too; a repeat of the same
	// normalized key must not re-pay generation.
	o.store.Put(base, normalizedKey, merged, o.cacheTTL)

	o.logger.Info().
		Str("key", normalizedKey).
		Bool("partial_translation", partial).
		Msg("generation complete")

	return &Outcome{Payload: merged, Partial: partial, Calls: calls}, nil
}

// Recommend runs the recommendation prompt through the same provider
// fallback chain. No normalization, no caching.
func (o *Orchestrator) Recommend(ctx context.Context) (models.Payload, error) {
	base := context.WithoutCancel(ctx)

	for _, provider := range o.providers {
		result, err := o.callProvider(base, provider, recommendPrompt)
		if err != nil {
			o.logger.Warn().Err(err).Str("provider", provider.Name()).Msg("recommend generation failed, trying next provider")
			continue
		}
		return result, nil
	}

	return nil, &models.GenerationError{Details: models.GenerationDetails{
		HasDeepSeekKey: o.hasProvider("deepseek"),
		HasVolcArkKey:  o.hasProvider("volc_ark"),
	}}
}

// runPipeline generates one language's payload, falling back through the
// provider list. It never fails upward; a nil payload means every provider
// was exhausted, and the call record says which provider gave up last.
func (o *Orchestrator) runPipeline(ctx context.Context, language models.Language, rawInput string) (models.Payload, models.ProviderCallRecord) {
	prompt := buildSearchPrompt(language, rawInput)
	start := time.Now()

	record := models.ProviderCallRecord{
		Language:     language,
		PromptLength: len(prompt),
	}

	for _, provider := range o.providers {
		record.Provider = provider.Name()
		record.Model = provider.Model()

		result, err := o.callProvider(ctx, provider, prompt)
		if err != nil {
			o.logger.Warn().
				Err(err).
				Str("provider", provider.Name()).
				Str("language", string(language)).
				Msg("provider call failed, trying next provider")
			continue
		}

		fixResultCount(result)

		record.Duration = time.Since(start)
		record.Success = true
		if encoded, err := json.Marshal(result); err == nil {
			record.ResponseLength = len(encoded)
		}

		o.logger.Info().
			Str("provider", provider.Name()).
			Str("language", string(language)).
			Dur("duration", record.Duration).
			Msg("language pipeline succeeded")

		return result, record
	}

	record.Duration = time.Since(start)
	record.Success = false
	record.ErrorMessage = "All LLM providers failed"

	return nil, record
}

func (o *Orchestrator) callProvider(ctx context.Context, provider llm.Provider, prompt string) (llm.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.providerTimeout)
	defer cancel()

	return provider.Generate(callCtx, prompt)
}

func (o *Orchestrator) hasProvider(name string) bool {
	for _, p := range o.providers {
		if p.Name() == name {
			return true
		}
	}
	return false
}

// fixResultCount keeps resultCount consistent with the results array on
// freshly generated payloads. Cached entries are returned as read.
func fixResultCount(payload models.Payload) {
	results, ok := payload["results"].([]any)
	if !ok {
		return
	}
	payload["resultCount"] = len(results)
}
