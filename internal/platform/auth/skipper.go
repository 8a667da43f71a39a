package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that bypass authentication. These are
// infrastructure endpoints that monitoring must reach without credentials.
var publicPaths = map[string]bool{
	"/healthz": true,
}

// Skipper returns true for requests whose path should skip authentication.
// Pass it as the Skipper on Config so health checks stay reachable without
// a bearer token.
func Skipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}
