package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/GoPDFChat/internal/auth"
	"github.com/akolanti/GoPDFChat/internal/metrics"
	"github.com/akolanti/GoPDFChat/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

type step func(re requestResponseStruct) requestResponseStruct

// Chain runs trace injection, rate limiting and, for protected routes,
// bearer authentication in front of a handler. A nil limiter disables rate
// limiting.
type Chain struct {
	verifier auth.Verifier
	limiter  *IPRateLimiter
	logger   *logger_i.Logger
}

func NewChain(verifier auth.Verifier, limiter *IPRateLimiter) *Chain {
	return &Chain{
		verifier: verifier,
		limiter:  limiter,
		logger:   logger_i.NewLogger("middleware"),
	}
}

func (c *Chain) Public(next http.HandlerFunc) http.HandlerFunc {
	return c.wrap(next, injectTrace, c.rateLimiter)
}

func (c *Chain) Protected(next http.HandlerFunc) http.HandlerFunc {
	return c.wrap(next, injectTrace, c.rateLimiter, c.authenticate)
}

func (c *Chain) wrap(next http.HandlerFunc, steps ...step) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		defer func() {
			metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
		}()

		re := requestResponseStruct{req: r, writer: rec, logger: c.logger}
		for _, s := range steps {
			re = s(re)
			if re.badRequest.isBadRequest {
				handleBadRequest(re)
				return
			}
		}
		next(rec, re.req)
	}
}
