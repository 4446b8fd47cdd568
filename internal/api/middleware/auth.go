package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Token rejection reason codes. The classification exists for diagnostics and
// client retry logic; every failure maps to the same 401 outcome.
const (
	CodeNoToken            = "NO_TOKEN"
	CodeMissingToken       = "MISSING_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeVerificationFailed = "VERIFICATION_FAILED"
)

// Auth validates the bearer JWT and injects the account ID and role into the
// request context. Validation is pure computation; it never touches a store.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorized(c, "no token provided, authorization denied", CodeNoToken)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return unauthorized(c, "token is missing", CodeMissingToken)
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					return unauthorized(c, "token has expired, please login again", CodeTokenExpired)
				case errors.Is(err, jwt.ErrTokenMalformed),
					errors.Is(err, jwt.ErrTokenSignatureInvalid),
					errors.Is(err, jwt.ErrTokenUnverifiable):
					return unauthorized(c, "invalid token, please login again", CodeInvalidToken)
				}
				return unauthorized(c, "token verification failed", CodeVerificationFailed)
			}
			if !tkn.Valid {
				return unauthorized(c, "token verification failed", CodeVerificationFailed)
			}

			sub, _ := claims["sub"].(string)
			role, _ := claims["role"].(string)
			c.Set("account_id", sub)
			c.Set("role", role)

			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg, code string) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error": msg,
		"code":  code,
	})
}
