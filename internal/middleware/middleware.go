package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/akolanti/GoPDFChat/internal/adapter/utils"
	"github.com/akolanti/GoPDFChat/internal/auth"
	"github.com/akolanti/GoPDFChat/internal/config"
	"github.com/akolanti/GoPDFChat/internal/handlers"
)

const traceHeader = "X-Trace-Id"

func injectTrace(re requestResponseStruct) requestResponseStruct {
	req := re.req
	if req == nil {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusBadRequest,
			errorMessage: "request is empty",
		}
		return re
	}
	trace := req.Header.Get(traceHeader)
	if trace == "" {
		trace = utils.GetNewUUID()
	}
	re.logger = re.logger.With("traceId", trace)
	ctx := context.WithValue(req.Context(), config.TRACE_ID_KEY, trace)
	re.writer.Header().Set(traceHeader, trace)
	re.req = req.WithContext(ctx)

	re.logger.Debug("trace middleware injected", "method", req.Method, "path", req.URL.Path)
	return re
}

// authenticate verifies the bearer token and stores its subject as the user id.
func (c *Chain) authenticate(re requestResponseStruct) requestResponseStruct {
	token, err := auth.BearerToken(re.req.Header.Get("Authorization"))
	if err == nil {
		var identity auth.Identity
		identity, err = c.verifier.Verify(re.req.Context(), token)
		if err == nil {
			re.logger = re.logger.With("userId", identity.Subject)
			ctx := context.WithValue(re.req.Context(), config.USER_ID_KEY, identity.Subject)
			re.req = re.req.WithContext(ctx)
			re.logger.Debug("Authorized")
			return re
		}
	}

	re.logger.Warn("Authentication failed", "error", err)
	re.badRequest = failureStruct{
		isBadRequest: true,
		httpCode:     http.StatusUnauthorized,
		errorMessage: "Unauthorized",
	}
	return re
}

func (c *Chain) rateLimiter(re requestResponseStruct) requestResponseStruct {
	if c.limiter == nil {
		return re
	}
	ip, _, err := net.SplitHostPort(re.req.RemoteAddr)
	if err != nil {
		ip = re.req.RemoteAddr
	}

	if !c.limiter.GetLimiter(ip).Allow() {
		re.logger.Warn("Too many requests", "ip", ip)
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusTooManyRequests,
			errorMessage: "Rate limit exceeded",
		}
	}
	return re
}

func handleBadRequest(re requestResponseStruct) {
	trace := ""
	if re.req != nil {
		trace = handlers.TraceID(re.req.Context())
		re.logger = re.logger.With("IP", re.req.RemoteAddr)
	}
	re.logger.Warn("Bad request", "httpCode", re.badRequest.httpCode, "errorMessage", re.badRequest.errorMessage)
	if re.badRequest.httpCode == http.StatusUnauthorized {
		handlers.WriteUnauthorized(re.writer, trace)
		return
	}
	handlers.WriteErrorResponse(re.writer, re.badRequest.httpCode, trace, re.badRequest.errorMessage)
}
