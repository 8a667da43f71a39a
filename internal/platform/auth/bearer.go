package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Claims carried by gateway bearer tokens.
type Claims struct {
	jwt.RegisteredClaims
	Client string `json:"client"`
}

// Config for the bearer middleware.
type Config struct {
	// Secret is the HS256 signing key. The middleware should not be
	// installed at all when no secret is configured.
	Secret []byte

	// Skipper reports whether a request bypasses authentication.
	Skipper func(c echo.Context) bool
}

// Bearer returns middleware requiring a valid HS256-signed bearer token on
// every non-skipped request. The client claim, when present, is stored on
// the context for the request logger.
func Bearer(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			token, err := extractBearer(c.Request().Header.Get("Authorization"))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			claims := &Claims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return cfg.Secret, nil
			})
			if err != nil || !parsed.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set("client", claims.Client)
			return next(c)
		}
	}
}

func extractBearer(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("authorization header is not a bearer token")
	}
	return parts[1], nil
}
