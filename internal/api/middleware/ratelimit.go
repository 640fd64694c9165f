package middleware

import (
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"

	"github.com/opentoolhub/search-agent/internal/ratelimit"
)

// RateLimit rejects requests over the per-client quota before any provider
// spend happens.
func RateLimit(limiter ratelimit.Limiter, logger *zerolog.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		identity := ClientIP(req.Request)

		if !limiter.Allow(req.Request.Context(), identity) {
			logger.Warn().Str("client_ip", identity).Msg("quota exceeded")
			WriteError(resp, http.StatusTooManyRequests, ErrorResponse{
				Error: "too many requests, try again later",
				Code:  "quota_exceeded",
			})
			return
		}

		chain.ProcessFilter(req, resp)
	}
}
