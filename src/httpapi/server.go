package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/logging"
)

// NewRouter builds the gin Engine serving §6's external interface,
// modeled on order_service/main.go's setupRoutes plus
// PricingController's CORS/logging middleware.
func NewRouter(c *Controller, allowedOrigins []string, log *logging.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(allowedOrigins))
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log, c.metrics))

	router.GET("/health", c.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/analyze", c.Analyze)
	router.GET("/analyze/:job_id", c.GetJob)
	router.GET("/analyze/:job_id/download", c.Download)

	router.GET("/monitor/success-rates", c.SuccessRates)
	router.GET("/monitor/stage-details", c.StageDetails)

	router.POST("/feedback", c.Feedback)

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
	}

	return func(ctx *gin.Context) {
		origin := ctx.GetHeader("Origin")
		switch {
		case allowAll:
			ctx.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && originAllowed(origin, allowedOrigins):
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Vary", "Origin")
		}
		ctx.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		ctx.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// securityHeadersMiddleware sets a conservative baseline of response
// headers, grounded on PricingController's hardening conventions for
// a JSON API with no browser-rendered content of its own.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Header("X-Content-Type-Options", "nosniff")
		ctx.Header("X-Frame-Options", "DENY")
		ctx.Header("Referrer-Policy", "no-referrer")
		ctx.Next()
	}
}

func loggingMiddleware(log *logging.Logger, metrics *controllerMetrics) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		duration := time.Since(start)
		status := ctx.Writer.Status()
		route := ctx.FullPath()
		if route == "" {
			route = ctx.Request.URL.Path
		}

		if log != nil {
			log.HTTPRequestLogger(ctx.Request.Method, route, status, duration)
		}
		if metrics != nil {
			metrics.requestsTotal.WithLabelValues(route, http.StatusText(status)).Inc()
			metrics.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
			if status >= 400 {
				metrics.errorsTotal.WithLabelValues(route).Inc()
			}
		}
	}
}
