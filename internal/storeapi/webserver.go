package storeapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/app"
)

const (
	ctxUserID    = "uid"
	ctxUserLevel = "level"
)

// Server is the storefront HTTP surface: the checkout operation plus the
// coupon, order-history and order-admin endpoints around it.
type Server struct {
	app  *app.Application
	echo *echo.Echo
}

func NewServer(application *app.Application) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(requestLogger())

	s := &Server{app: application, echo: e}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.echo.Group("/api", s.authMiddleware)
	api.POST("/orders", s.createOrder)
	api.GET("/orders", s.listOrders)
	api.GET("/orders/:id", s.getOrder)
	api.POST("/orders/:id/cancel", s.cancelOrder)
	api.POST("/coupons/apply", s.applyCoupon)

	admin := api.Group("", s.adminOnly)
	admin.PUT("/orders/:id/status", s.updateOrderStatus)
	admin.POST("/orders/:id/payment", s.markPayment)
}

// Start runs the listener until the process exits.
func (s *Server) Start() error {
	cfg := s.app.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.L().Info("storefront api listening", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			zap.L().Debug("http request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("elapsed", time.Since(start)))
			return err
		}
	}
}

// authMiddleware resolves the requesting user from the bearer token. Session
// issuance lives outside this service; only the signed uid/level claims are
// consumed here.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(s.app.Config().Web.JwtSecret), nil
		})
		if err != nil || !token.Valid {
			return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token", nil)
		}

		uid, ok := claims["uid"]
		if !ok {
			return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "token missing uid", nil)
		}
		var userID int64
		switch v := uid.(type) {
		case float64:
			userID = int64(v)
		case string:
			if _, err := fmt.Sscanf(v, "%d", &userID); err != nil {
				return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "token uid malformed", nil)
			}
		}
		if userID == 0 {
			return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "token uid malformed", nil)
		}
		c.Set(ctxUserID, userID)
		if level, ok := claims["level"].(string); ok {
			c.Set(ctxUserLevel, level)
		}
		return next(c)
	}
}

func (s *Server) adminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		level, _ := c.Get(ctxUserLevel).(string)
		if level != "super" && level != "admin" {
			return fail(c, http.StatusForbidden, "FORBIDDEN", "administrator access required", nil)
		}
		return next(c)
	}
}

func currentUserID(c echo.Context) int64 {
	id, _ := c.Get(ctxUserID).(int64)
	return id
}
