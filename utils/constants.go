package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds (86400 seconds = 24 hours)
	AccessTokenTTLSeconds = 86400

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Context keys for request-scoped values propagated from HTTP handlers
const (
	// RequestIDKey is the context key carrying the per-request correlation ID
	RequestIDKey = "request_id"

	// UserAgentKey is the context key carrying the client user agent
	UserAgentKey = "user_agent"

	// IPAddressKey is the context key carrying the client IP address
	IPAddressKey = "ip_address"

	// EndpointKey is the context key carrying the handled endpoint path
	EndpointKey = "endpoint"

	// TimeoutKey is the context key carrying the request timeout
	TimeoutKey = "timeout"

	// CancelFuncKey is the context key carrying the request cancel function
	CancelFuncKey = "cancel_func"
)

// Cache key prefixes and TTLs
const (
	// ScoreCachePrefix prefixes per user-month score cache entries
	ScoreCachePrefix = "ecotrace:score:"

	// RecommendationCachePrefix prefixes per user-month recommendation cache entries
	RecommendationCachePrefix = "ecotrace:recommendations:"

	// ScoreCacheTTL bounds staleness of cached scores between recomputations
	ScoreCacheTTL = 10 * time.Minute

	// RecommendationCacheTTL bounds staleness of cached recommendation lists
	RecommendationCacheTTL = 30 * time.Minute
)

// Upload limits
const (
	// MaxUploadBytes caps bill document uploads (10 MB)
	MaxUploadBytes = 10 << 20
)
