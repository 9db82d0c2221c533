package config

import (
	"strings"
	"time"
)

// CacheConfig drives the Redis response cache in front of public tenant
// listings and platform stats.
type CacheConfig struct {
	Enabled bool
	// Methods is the set of upper-case HTTP methods eligible for caching.
	Methods map[string]bool
	TTL     time.Duration
	// KeyStrategy is one of path, path_query, method_path or
	// method_path_query. The concrete path is in every variant.
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

func LoadCacheConfig() CacheConfig {
	methods := map[string]bool{}
	for _, m := range strings.FieldsFunc(envStr("CACHE_METHODS", "GET"), func(r rune) bool { return r == ',' || r == ' ' }) {
		methods[strings.ToUpper(m)] = true
	}
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      methods,
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  strings.ToLower(envStr("CACHE_KEY_STRATEGY", "path_query")),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
