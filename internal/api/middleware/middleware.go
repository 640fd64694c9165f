package middleware

import (
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"
)

// ErrorResponse is the JSON error envelope for every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func HandleError(resp *restful.Response, err error, status int) {
	resp.WriteHeaderAndEntity(status, ErrorResponse{Error: err.Error()})
}

func WriteError(resp *restful.Response, status int, body ErrorResponse) {
	resp.WriteHeaderAndEntity(status, body)
}

// Logger is the access-log filter.
func Logger(logger *zerolog.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		start := time.Now()
		chain.ProcessFilter(req, resp)

		logger.Info().
			Str("method", req.Request.Method).
			Str("path", req.Request.URL.Path).
			Int("status", resp.StatusCode()).
			Dur("duration", time.Since(start)).
			Str("client_ip", ClientIP(req.Request)).
			Msg("request handled")
	}
}

// RecoverPanic converts any panic below it into a 500 JSON error so a
// programming fault never reaches the transport layer unhandled.
func RecoverPanic(logger *zerolog.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Any("panic", r).
					Str("path", req.Request.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				WriteError(resp, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			}
		}()

		chain.ProcessFilter(req, resp)
	}
}

// ClientIP resolves the requester's address, preferring the first
// X-Forwarded-For hop set by the edge proxy.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
