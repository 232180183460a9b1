package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mnesleha/Shopwise/internal/service"
	"github.com/mnesleha/Shopwise/internal/transport/http/middleware"
)

const cartCookieMaxAge = 30 * 24 * time.Hour

// CookieConfig — общие атрибуты cookie сессии.
type CookieConfig struct {
	Domain string
	Secure bool
}

func (cc CookieConfig) set(c *gin.Context, name, value string, maxAge time.Duration, httpOnly bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(maxAge.Seconds()), "/", cc.Domain, cc.Secure, httpOnly)
}

func (cc CookieConfig) clear(c *gin.Context, name string, httpOnly bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", cc.Domain, cc.Secure, httpOnly)
}

func (cc CookieConfig) setAuth(c *gin.Context, pair service.TokenPair, now time.Time) {
	cc.set(c, middleware.AccessCookie, pair.AccessToken, pair.AccessExpiresAt.Sub(now), true)
	cc.set(c, middleware.RefreshCookie, pair.RefreshOpaque, pair.RefreshExpiresAt.Sub(now), true)
}

func (cc CookieConfig) clearAuth(c *gin.Context) {
	cc.clear(c, middleware.AccessCookie, true)
	cc.clear(c, middleware.RefreshCookie, true)
}

func (cc CookieConfig) setCartToken(c *gin.Context, raw string) {
	cc.set(c, middleware.CartCookie, raw, cartCookieMaxAge, true)
}

func (cc CookieConfig) clearCartToken(c *gin.Context) {
	cc.clear(c, middleware.CartCookie, true)
}
