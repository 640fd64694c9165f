package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"

	"github.com/opentoolhub/search-agent/internal/api/middleware"
	"github.com/opentoolhub/search-agent/internal/cache"
	"github.com/opentoolhub/search-agent/internal/models"
	"github.com/opentoolhub/search-agent/internal/normalize"
	"github.com/opentoolhub/search-agent/internal/sanitize"
	"github.com/opentoolhub/search-agent/internal/search"
)

// Generator runs the dual-language generation flow on a cache miss.
type Generator interface {
	Generate(ctx context.Context, normalizedKey string, rawInput string) (*search.Outcome, error)
	Recommend(ctx context.Context) (models.Payload, error)
}

// FlowSink receives completed search flows, fire-and-forget.
type FlowSink interface {
	Record(rec models.FlowRecord)
}

type Handler struct {
	gate       *sanitize.Gate
	normalizer *normalize.Normalizer
	store      cache.Store
	generator  Generator
	sink       FlowSink
	logger     *zerolog.Logger
}

func NewHandler(
	gate *sanitize.Gate,
	normalizer *normalize.Normalizer,
	store cache.Store,
	generator Generator,
	sink FlowSink,
	logger *zerolog.Logger,
) *Handler {
	return &Handler{
		gate:       gate,
		normalizer: normalizer,
		store:      store,
		generator:  generator,
		sink:       sink,
		logger:     logger,
	}
}

type searchRequest struct {
	Query    string `json:"query"`
	Language string `json:"language"`
}

// Search is the flow controller: validate, normalize, cache lookup, and on a
// miss orchestrate generation, cache the result, respond. Telemetry is
// recorded on every terminal path without blocking the response.
func (h *Handler) Search(req *restful.Request, resp *restful.Response) {
	start := time.Now()
	ctx := req.Request.Context()

	rawInput, language := readParams(req)
	requestType := models.RequestType(req.QueryParameter("type"))
	if requestType == "" {
		requestType = models.RequestTypeSearch
	}

	// Safety gate runs against the raw input: hostile payloads are rejected
	// outright, never stripped into something forwardable.
	if !sanitize.IsSafe(rawInput) {
		h.logger.Warn().Str("query", rawInput).Msg("unsafe input rejected")
		middleware.WriteError(resp, http.StatusBadRequest, middleware.ErrorResponse{
			Error:   "input contains disallowed characters",
			Code:    models.CodeUnsafeInput,
			Details: "potential injection detected, request rejected",
		})
		return
	}

	sanitized := sanitize.Sanitize(rawInput)

	if sanitized == "" && requestType == models.RequestTypeSearch {
		middleware.WriteError(resp, http.StatusBadRequest, middleware.ErrorResponse{
			Error: "missing query parameter",
			Code:  models.CodeMissingQuery,
		})
		return
	}

	if requestType == models.RequestTypeSearch && !h.gate.IsDomainRelevant(sanitized) {
		h.logger.Info().Str("query", sanitized).Msg("off-domain query rejected")
		middleware.WriteError(resp, http.StatusBadRequest, middleware.ErrorResponse{
			Error:   "query is unrelated to software tooling",
			Code:    models.CodeOffDomain,
			Details: "this is a software tool search service; try software, development, or infrastructure keywords",
		})
		return
	}

	// Anything that is not a search runs the recommend flow. Unknown type
	// values must never reach the search pipeline, which would skip its
	// gates and pay for a generation on arbitrary input.
	if requestType != models.RequestTypeSearch {
		h.recommend(ctx, req, resp, start, language)
		return
	}

	normalizedKey := h.normalizer.Normalize(sanitized)
	h.logger.Debug().Str("query", sanitized).Str("normalized_key", normalizedKey).Msg("query normalized")

	if entry, ok := h.store.Get(ctx, normalizedKey); ok {
		h.respondFromCache(req, resp, entry, sanitized, normalizedKey, language, start)
		return
	}

	outcome, err := h.generator.Generate(ctx, normalizedKey, sanitized)
	if err != nil {
		if genErr, ok := models.AsGenerationError(err); ok {
			h.logger.Error().Err(err).Str("query", sanitized).Msg("generation failed")
			middleware.WriteError(resp, http.StatusInternalServerError, middleware.ErrorResponse{
				Error:   "generation failed",
				Details: genErr.Details,
			})
			return
		}
		h.logger.Error().Err(err).Str("query", sanitized).Msg("search flow failed")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	payload := outcome.Payload
	payload["fromCache"] = false
	payload["debugInfo"] = map[string]any{
		"kvEnabled":       true,
		"cacheHit":        false,
		"originalQuery":   sanitized,
		"normalizedQuery": normalizedKey,
		"cacheKey":        cache.EntryKey(normalizedKey),
	}

	resp.WriteHeaderAndEntity(http.StatusOK, payload)

	h.sink.Record(models.FlowRecord{
		ClientIP:        middleware.ClientIP(req.Request),
		UserAgent:       req.Request.UserAgent(),
		Referer:         req.Request.Referer(),
		OriginalQuery:   sanitized,
		NormalizedQuery: normalizedKey,
		SearchIntent:    stringField(payload, "searchIntent"),
		SearchType:      models.RequestTypeSearch,
		ResultCount:     resultCount(payload),
		FromCache:       false,
		TotalDuration:   time.Since(start),
		Language:        language,
		Results:         toolsFromPayload(payload),
		Calls:           outcome.Calls,
	})
}

func (h *Handler) respondFromCache(req *restful.Request, resp *restful.Response, entry models.Payload, sanitized, normalizedKey string, language models.Language, start time.Time) {
	cleaned := cache.Clean(entry)
	cleaned["fromCache"] = true
	cleaned["cacheAge"] = cache.CachedAt(entry)
	cleaned["debugInfo"] = map[string]any{
		"kvEnabled": true,
		"cacheHit":  true,
	}

	h.logger.Info().Str("query", sanitized).Str("normalized_key", normalizedKey).Msg("cache hit")

	resp.WriteHeaderAndEntity(http.StatusOK, cleaned)

	h.sink.Record(models.FlowRecord{
		ClientIP:        middleware.ClientIP(req.Request),
		UserAgent:       req.Request.UserAgent(),
		Referer:         req.Request.Referer(),
		OriginalQuery:   sanitized,
		NormalizedQuery: normalizedKey,
		SearchIntent:    stringField(cleaned, "searchIntent"),
		SearchType:      models.RequestTypeSearch,
		ResultCount:     resultCount(cleaned),
		FromCache:       true,
		TotalDuration:   time.Since(start),
		Language:        language,
	})
}

func (h *Handler) recommend(ctx context.Context, req *restful.Request, resp *restful.Response, start time.Time, language models.Language) {
	payload, err := h.generator.Recommend(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("recommend generation failed")
		middleware.WriteError(resp, http.StatusInternalServerError, middleware.ErrorResponse{
			Error: "generation failed",
		})
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, payload)

	h.sink.Record(models.FlowRecord{
		ClientIP:      middleware.ClientIP(req.Request),
		UserAgent:     req.Request.UserAgent(),
		Referer:       req.Request.Referer(),
		SearchType:    models.RequestTypeRecommend,
		TotalDuration: time.Since(start),
		Language:      language,
	})
}

// Health handler GET /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	})
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func readParams(req *restful.Request) (string, models.Language) {
	query := ""
	language := string(models.LanguageZH)

	if req.Request.Method == http.MethodPost {
		var body searchRequest
		if err := req.ReadEntity(&body); err == nil {
			query = body.Query
			if body.Language != "" {
				language = body.Language
			}
		}
	} else {
		query = req.QueryParameter("query")
		if l := req.QueryParameter("language"); l != "" {
			language = l
		}
	}

	if language != string(models.LanguageZH) && language != string(models.LanguageEN) {
		language = string(models.LanguageZH)
	}

	return query, models.Language(language)
}

func stringField(payload models.Payload, key string) string {
	s, _ := payload[key].(string)
	return s
}

func resultCount(payload models.Payload) int {
	results, _ := payload["results"].([]any)
	return len(results)
}

// toolsFromPayload recovers typed tool entries from the opaque payload for
// the analytics sink. Fields the model left out simply stay zero.
func toolsFromPayload(payload models.Payload) []models.ToolResult {
	raw, ok := payload["results"]
	if !ok {
		return nil
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}

	var tools []models.ToolResult
	if err := json.Unmarshal(encoded, &tools); err != nil {
		return nil
	}
	return tools
}
