package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// NewConfig builds a configuration with the default endpoint limits.
func NewConfig(enabled bool, limit int, window time.Duration, whitelist, blacklist []string) *Config {
	if window <= 0 {
		window = time.Minute
	}
	return &Config{
		Enabled:         enabled,
		DefaultLimit:    limit,
		DefaultWindow:   window,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       toSet(whitelist),
		Blacklist:       toSet(blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. Workflow and
// batch runs call the LLM several times per request and get the strictest limits.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/workflows", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/workflows/stream", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/batches", Method: "POST", Limit: 5, Window: time.Hour, Burst: 1},
		{Path: "/batches/stream", Method: "POST", Limit: 5, Window: time.Hour, Burst: 1},

		{Path: "/jobs/", Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},

		{Path: "/jobs", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/jobs/fetch", Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},
		{Path: "/resumes", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/collections/", Method: "DELETE", Limit: 10, Window: time.Minute, Burst: 2},
	}
}

// exemptPaths are probe and scrape endpoints that are never limited.
var exemptPaths = map[string]bool{"/health": true, "/metrics": true}

// endpointFor resolves the limits for a request. An exact path match wins,
// then the longest prefix pattern (a Path ending in "/"), then the defaults.
// A zero Limit means unlimited.
func (c *Config) endpointFor(method, path string) EndpointConfig {
	if method == http.MethodGet && exemptPaths[path] {
		return EndpointConfig{Path: path, Method: method}
	}

	var prefix *EndpointConfig
	for i := range c.EndpointConfigs {
		ec := &c.EndpointConfigs[i]
		if ec.Method != method {
			continue
		}
		if ec.Path == path {
			return *ec
		}
		if strings.HasSuffix(ec.Path, "/") && strings.HasPrefix(path, ec.Path) &&
			(prefix == nil || len(ec.Path) > len(prefix.Path)) {
			prefix = ec
		}
	}
	if prefix != nil {
		return *prefix
	}
	return EndpointConfig{
		Path:   path,
		Method: method,
		Limit:  c.DefaultLimit,
		Window: c.DefaultWindow,
		Burst:  c.DefaultLimit,
	}
}

// toSet converts a list of IP addresses into a lookup set.
func toSet(list []string) map[string]bool {
	result := make(map[string]bool, len(list))
	for _, ip := range list {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
