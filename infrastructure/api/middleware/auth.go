package middleware

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader carries the key checked by WriteProtect.
const APIKeyHeader = "X-API-KEY"

// AuthConfig holds the accepted API keys.
type AuthConfig struct {
	apiKeys [][]byte
}

// NewAuthConfigWithKeys creates an AuthConfig. Empty keys are ignored; with no
// keys left, authentication is disabled.
func NewAuthConfigWithKeys(apiKeys []string) AuthConfig {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}
	return AuthConfig{apiKeys: keys}
}

// Enabled reports whether any API key is configured.
func (c AuthConfig) Enabled() bool { return len(c.apiKeys) > 0 }

func (c AuthConfig) valid(key string) bool {
	given := []byte(key)
	ok := false
	for _, k := range c.apiKeys {
		if subtle.ConstantTimeCompare(given, k) == 1 {
			ok = true
		}
	}
	return ok
}

// WriteProtect requires a valid X-API-KEY header on mutating requests.
// GET, HEAD and OPTIONS always pass, as does everything when auth is disabled.
func WriteProtect(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled() || safeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(APIKeyHeader)
			switch {
			case key == "":
				WriteError(w, r, NewAuthenticationError(APIKeyHeader+" header is required"), nil)
			case !config.valid(key):
				WriteError(w, r, NewAuthenticationError("invalid API key"), nil)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// WriteProtectAuth builds WriteProtect from a list of API keys.
func WriteProtectAuth(apiKeys []string) func(http.Handler) http.Handler {
	return WriteProtect(NewAuthConfigWithKeys(apiKeys))
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
