package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mnesleha/Shopwise/internal/service"
	"github.com/mnesleha/Shopwise/internal/transport/http/dto"
)

const (
	CtxUserID = "user_id"

	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
	CartCookie    = "cart_token"
)

// AccessParser проверяет access-токен и достаёт из него клеймы.
type AccessParser interface {
	ParseAccess(ctx context.Context, token string) (*service.Claims, error)
}

// OptionalAuth пытается аутентифицировать запрос по Bearer-заголовку либо
// access-cookie. Анонимный или невалидный токен запрос не блокирует —
// он просто остаётся анонимным.
func OptionalAuth(parser AccessParser, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := parser.ParseAccess(c.Request.Context(), token)
		if err != nil {
			log.Debug("access token rejected", zap.Error(err))
			c.Next()
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Request = c.Request.WithContext(service.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

// AuthRequired — как OptionalAuth, но анонимный запрос получает 401.
func AuthRequired(parser AccessParser, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewError(dto.CodeUnauthorized, "authentication required"))
			return
		}

		claims, err := parser.ParseAccess(c.Request.Context(), token)
		if err != nil {
			log.Warn("access token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewError(dto.CodeUnauthorized, "invalid token"))
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Request = c.Request.WithContext(service.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if authz := c.GetHeader("Authorization"); authz != "" {
		if t, ok := ExtractBearerToken(authz); ok {
			return t
		}
	}
	if t, err := c.Cookie(AccessCookie); err == nil {
		return t
	}
	return ""
}

// ExtractBearerToken извлекает токен из заголовка Authorization,
// устойчиво к лишним кавычкам вокруг значения.
func ExtractBearerToken(authz string) (string, bool) {
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	t := strings.Trim(strings.TrimSpace(parts[1]), " \"'")
	return t, t != ""
}
