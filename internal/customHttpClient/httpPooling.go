package customHttpClient

import (
	"net/http"

	"github.com/akolanti/GoPDFChat/internal/config"
)

// New returns a client with a pooled transport. main builds one and hands it
// to the embedding and llm clients so they share keep-alive connections.
func New() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        config.MaxIdleConns,
			MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
			IdleConnTimeout:     config.IdleConnTimeout,
		},
	}
}
