package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, proxy *ImageProxy, proxyPath string) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, proxy, proxyPath)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, proxy *ImageProxy, proxyPath string) {
	api := r.Group("/api")
	{
		api.GET("/news", handler.GetNews)
		api.GET("/news.rss", handler.GetNewsRSS)
		api.GET("/news/article", handler.GetArticle)
		api.GET("/categories", handler.GetCategories)
	}

	r.GET(proxyPath, proxy.Handle)

	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "News Comb",
			"version":     handler.version,
			"description": "News aggregator with normalization, deduplication, filtering and topic detection",
			"endpoints": map[string]string{
				"news":       "/api/news[?category=<id>]",
				"rss":        "/api/news.rss",
				"article":    "/api/news/article?id=<guid>",
				"categories": "/api/categories",
				"images":     proxyPath + "?url=<image>&referer=<article>",
				"health":     "/health",
				"stats":      "/stats",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
