package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/mnemos/internal/profile"
)

// unauthenticatedPaths are reachable without an API key.
var unauthenticatedPaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// apiKeyAuth checks the request against the configured API keys. With no
// keys configured the instance runs open, which is the dev default.
func apiKeyAuth(profile *profile.Profile) echo.MiddlewareFunc {
	keys := profile.APIKeyList()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(keys) == 0 || unauthenticatedPaths[c.Path()] {
				return next(c)
			}

			presented := extractAPIKey(c.Request())
			for _, key := range keys {
				if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) == 1 {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing api key")
		}
	}
}

func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	authorization := r.Header.Get("Authorization")
	if strings.HasPrefix(authorization, "Bearer ") {
		return strings.TrimPrefix(authorization, "Bearer ")
	}
	return ""
}
