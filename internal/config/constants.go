package config

import "time"

// Session store connection pool settings
const (
	DBMaxOpenConns    = 5
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Store ping timeout at startup
const DBPingTimeout = 5 * time.Second

// Upper bound for a single WhatsApp logout round-trip
const LogoutTimeout = 30 * time.Second

// Upper bound for one scheduled reconnect attempt
const ReconnectRunTimeout = 60 * time.Second

// Upper bound for publishing one lifecycle event
const EventPublishTimeout = 5 * time.Second

// CORS preflight cache
const CORSMaxAge = 300

// Default rate limiting
const DefaultRateLimitPerMin = 60
