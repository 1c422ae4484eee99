package ratelimit

import (
	"strings"
)

// MatchEndpoint resolves the endpoint configuration for a request, or nil if
// none applies. Exact path+method matches win; configs whose path ends in "/"
// act as prefix rules so "/resumes/" covers "/resumes/{id}" and
// "/resumes/{id}/pdf".
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// Health checks are never throttled.
	if path == "/health" && method == "GET" {
		return &EndpointConfig{}
	}

	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}

	for i := range configs {
		cfg := &configs[i]
		if cfg.Method == method && strings.HasSuffix(cfg.Path, "/") && strings.HasPrefix(path, cfg.Path) {
			return cfg
		}
	}

	return nil
}
