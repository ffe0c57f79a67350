package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/erp/checkout/internal/infrastructure/auth"
	"github.com/erp/checkout/internal/infrastructure/logger"
	"github.com/erp/checkout/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextTerminalID is the gin context key the authenticated terminal is stored under
const ContextTerminalID = "terminal_id"

// TokenValidator verifies a bearer token and returns its claims
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// TerminalAuthConfig configures the terminal authentication middleware
type TerminalAuthConfig struct {
	Validator TokenValidator
	Logger    *zap.Logger
	SkipPaths []string
}

// TerminalAuth requires a valid bearer token on every request outside SkipPaths.
// The authenticated terminal replaces any client supplied terminal header, so
// logging and rate limiting downstream key on the token rather than the header.
func TerminalAuth(cfg TerminalAuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Missing bearer token")
			return
		}

		claims, err := cfg.Validator.Validate(token)
		if err != nil {
			log.Warn("terminal token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
				zap.Error(err),
			)
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.ErrCodeTokenExpired, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Invalid token")
			return
		}

		c.Request.Header.Set(logger.TerminalHeader, claims.TerminalID)
		c.Set(ContextTerminalID, claims.TerminalID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="pos-checkout"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
		code, message, c.GetString(ContextRequestID),
	))
}
