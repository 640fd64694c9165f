package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/opentoolhub/search-agent/internal/llm"
	"github.com/opentoolhub/search-agent/internal/models"
)

type fakeProvider struct {
	mu       sync.Mutex
	name     string
	model    string
	calls    int
	generate func(prompt string) (llm.Result, error)
}

func (p *fakeProvider) Name() string  { return p.name }
func (p *fakeProvider) Model() string { return p.model }

func (p *fakeProvider) Generate(_ context.Context, prompt string) (llm.Result, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.generate(prompt)
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeStore struct {
	mu      sync.Mutex
	entries map[string]models.Payload
	puts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string]models.Payload{}}
}

func (s *fakeStore) Get(_ context.Context, key string) (models.Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	return entry, ok
}

func (s *fakeStore) Put(_ context.Context, key string, value models.Payload, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	s.puts = s.puts + 1
}

func (s *fakeStore) Delete(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func isEnglishPrompt(prompt string) bool {
	return strings.Contains(prompt, "open source software tool search assistant")
}

func successfulProvider(name, model string) *fakeProvider {
	return &fakeProvider{
		name:  name,
		model: model,
		generate: func(prompt string) (llm.Result, error) {
			intent := "数据库"
			if isEnglishPrompt(prompt) {
				intent = "database"
			}
			return llm.Result{
				"searchIntent": intent,
				"resultCount":  float64(3),
				"results":      []any{map[string]any{"name": "restic"}},
			}, nil
		},
	}
}

func failingProvider(name, model string) *fakeProvider {
	return &fakeProvider{
		name:     name,
		model:    model,
		generate: func(string) (llm.Result, error) { return nil, errors.New("boom") },
	}
}

func TestGenerate_BothLanguagesSucceed(t *testing.T) {
	logger := zerolog.Nop()
	store := newFakeStore()
	primary := successfulProvider("deepseek", "deepseek-chat")

	o := New([]llm.Provider{primary}, store, &logger)

	outcome, err := o.Generate(context.Background(), "数据库", "mysql备份工具")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if outcome.Partial {
		t.Error("expected full bilingual result, got partial")
	}
	if outcome.Payload["_partialTranslation"] != false {
		t.Error("_partialTranslation should be false")
	}

	zh, _ := outcome.Payload["zh"].(models.Payload)
	en, _ := outcome.Payload["en"].(models.Payload)
	if zh == nil || en == nil {
		t.Fatal("merged payload is missing a language slot")
	}
	if zh["searchIntent"] != "数据库" || en["searchIntent"] != "database" {
		t.Errorf("language payloads mixed up: zh=%v en=%v", zh["searchIntent"], en["searchIntent"])
	}

	// The top level mirrors the zh payload for legacy readers.
	if outcome.Payload["searchIntent"] != "数据库" {
		t.Errorf("top-level fields should mirror zh, got %v", outcome.Payload["searchIntent"])
	}

	if primary.callCount() != 2 {
		t.Errorf("expected one call per language, got %d", primary.callCount())
	}

	if store.puts != 1 {
		t.Errorf("expected exactly one cache write, got %d", store.puts)
	}
	if _, ok := store.entries["数据库"]; !ok {
		t.Error("cache entry not written under the normalized key")
	}
}

func TestGenerate_FixesResultCount(t *testing.T) {
	logger := zerolog.Nop()
	store := newFakeStore()

	// The model claims resultCount 3 but returns a single result.
	o := New([]llm.Provider{successfulProvider("deepseek", "deepseek-chat")}, store, &logger)

	outcome, err := o.Generate(context.Background(), "数据库", "mysql")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	zh := outcome.Payload["zh"].(models.Payload)
	if zh["resultCount"] != 1 {
		t.Errorf("resultCount not reconciled with results length: %v", zh["resultCount"])
	}
}

func TestGenerate_FallsBackToSecondProvider(t *testing.T) {
	logger := zerolog.Nop()
	store := newFakeStore()
	primary := failingProvider("deepseek", "deepseek-chat")
	fallback := successfulProvider("volc_ark", "doubao-seed-1-8-251228")

	o := New([]llm.Provider{primary, fallback}, store, &logger)

	outcome, err := o.Generate(context.Background(), "数据库", "mysql")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if primary.callCount() != 2 || fallback.callCount() != 2 {
		t.Errorf("expected both providers tried per language, got %d and %d", primary.callCount(), fallback.callCount())
	}

	for _, call := range outcome.Calls {
		if !call.Success {
			t.Errorf("pipeline for %s should have succeeded via fallback", call.Language)
		}
		if call.Provider != "volc_ark" {
			t.Errorf("call record should name the provider that produced the result, got %q", call.Provider)
		}
	}
}

func TestGenerate_PartialTranslation(t *testing.T) {
	logger := zerolog.Nop()
	store := newFakeStore()

	// Chinese succeeds, English exhausts every provider.
	zhOnly := &fakeProvider{
		name:  "deepseek",
		model: "deepseek-chat",
		generate: func(prompt string) (llm.Result, error) {
			if isEnglishPrompt(prompt) {
				return nil, errors.New("boom")
			}
			return llm.Result{"searchIntent": "数据库", "results": []any{map[string]any{"name": "restic"}}}, nil
		},
	}
	alsoFailsEN := &fakeProvider{
		name:  "volc_ark",
		model: "doubao-seed-1-8-251228",
		generate: func(prompt string) (llm.Result, error) {
			return nil, errors.New("boom")
		},
	}

	o := New([]llm.Provider{zhOnly, alsoFailsEN}, store, &logger)

	outcome, err := o.Generate(context.Background(), "数据库", "mysql")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !outcome.Partial {
		t.Fatal("expected partial translation")
	}
	if outcome.Payload["_partialTranslation"] != true {
		t.Error("_partialTranslation should be true")
	}

	zh := outcome.Payload["zh"].(models.Payload)
	en := outcome.Payload["en"].(models.Payload)
	if en["searchIntent"] != zh["searchIntent"] {
		t.Error("en slot should duplicate the surviving zh payload")
	}

	// Partial results are still cached.
	if store.puts != 1 {
		t.Errorf("expected the partial payload to be cached, got %d writes", store.puts)
	}

	var enCall *models.ProviderCallRecord
	for i := range outcome.Calls {
		if outcome.Calls[i].Language == models.LanguageEN {
			enCall = &outcome.Calls[i]
		}
	}
	if enCall == nil {
		t.Fatal("missing en call record")
	}
	if enCall.Success {
		t.Error("en call record should be a failure")
	}
	if enCall.ErrorMessage != "All LLM providers failed" {
		t.Errorf("unexpected error message: %q", enCall.ErrorMessage)
	}
}

func TestGenerate_TotalFailure(t *testing.T) {
	logger := zerolog.Nop()
	store := newFakeStore()

	o := New([]llm.Provider{
		failingProvider("deepseek", "deepseek-chat"),
		failingProvider("volc_ark", "doubao-seed-1-8-251228"),
	}, store, &logger)

	_, err := o.Generate(context.Background(), "数据库", "mysql")
	if err == nil {
		t.Fatal("expected error when every provider fails in both languages")
	}

	genErr, ok := models.AsGenerationError(err)
	if !ok {
		t.Fatalf("expected GenerationError, got %T", err)
	}
	if genErr.Details.ZHSuccess || genErr.Details.ENSuccess {
		t.Error("details should report both pipelines failed")
	}
	if !genErr.Details.HasDeepSeekKey || !genErr.Details.HasVolcArkKey {
		t.Error("details should reflect which providers were configured")
	}

	if store.puts != 0 {
		t.Errorf("nothing may be cached on total failure, got %d writes", store.puts)
	}
}

func TestRecommend_FallsBack(t *testing.T) {
	logger := zerolog.Nop()
	primary := failingProvider("deepseek", "deepseek-chat")
	fallback := &fakeProvider{
		name:  "volc_ark",
		model: "doubao-seed-1-8-251228",
		generate: func(string) (llm.Result, error) {
			return llm.Result{"personalizedTop5": []any{}}, nil
		},
	}
	store := newFakeStore()

	o := New([]llm.Provider{primary, fallback}, store, &logger)

	payload, err := o.Recommend(context.Background())
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if _, ok := payload["personalizedTop5"]; !ok {
		t.Error("recommend payload missing expected field")
	}

	// Recommendations are never cached.
	if store.puts != 0 {
		t.Errorf("recommend must not write to the cache, got %d writes", store.puts)
	}
}

func TestRecommend_TotalFailure(t *testing.T) {
	logger := zerolog.Nop()
	o := New([]llm.Provider{failingProvider("deepseek", "deepseek-chat")}, newFakeStore(), &logger)

	if _, err := o.Recommend(context.Background()); err == nil {
		t.Fatal("expected error when every provider fails")
	}
}
