package httpapi

import "time"

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// mutationTimeout bounds assign/modify handlers, persistence included.
// Zero leaves only the request and server contexts in charge.
var mutationTimeout time.Duration

// SetMutationTimeout sets the per-mutation deadline (<= 0 disables).
func SetMutationTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	mutationTimeout = d
}

// Bounds for GET /tab-host-history?limit=N.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
