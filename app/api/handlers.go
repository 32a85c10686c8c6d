package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/feed"
)

const allCategory = "all"

// NewHandler builds the HTTP handlers. runRepo may be nil.
func NewHandler(aggregator AggregatorInterface, runRepo RunRepositoryInterface, version string) *Handler {
	return &Handler{
		aggregator: aggregator,
		generator:  feed.NewGenerator(version),
		runRepo:    runRepo,
		version:    version,
	}
}

func (h *Handler) GetNews(c *gin.Context) {
	result, err := h.aggregate(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch news feed"})
		return
	}

	category := c.Query("category")
	if category != "" && category != allCategory {
		filtered := *result
		filtered.Items = make([]feed.Article, 0, len(result.Items))
		for _, item := range result.Items {
			if item.DetectedCategory == category {
				filtered.Items = append(filtered.Items, item)
			}
		}
		result = &filtered
	}

	c.Header("X-Feed-Items", strconv.Itoa(len(result.Items)))
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetNewsRSS(c *gin.Context) {
	result, err := h.aggregate(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch news feed"})
		return
	}

	rss, err := h.generator.Run(result, selfLink(c))
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(result.Items)))
	c.String(http.StatusOK, rss)
}

// GetArticle looks an article up by guid. The id may be the raw guid or its
// URL-encoded form.
func (h *Handler) GetArticle(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Article id is required"})
		return
	}

	result, err := h.aggregate(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch news feed"})
		return
	}

	for _, item := range result.Items {
		if item.GUID == id || url.QueryEscape(item.GUID) == id || url.PathEscape(item.GUID) == id {
			c.JSON(http.StatusOK, item)
			return
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
}

func (h *Handler) GetCategories(c *gin.Context) {
	rules := h.aggregator.Rules()

	categories := make([]categoryResponse, 0, len(rules)+1)
	categories = append(categories, categoryResponse{ID: allCategory, Name: "Të gjitha"})
	for _, rule := range rules {
		categories = append(categories, categoryResponse{ID: rule.ID, Name: rule.Name})
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	if h.runRepo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Statistics are disabled"})
		return
	}

	summary, err := h.runRepo.Summary(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "run_summary", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
		return
	}

	stats := gin.H{
		"total_runs":          summary.TotalRuns,
		"failed_runs":         summary.FailedRuns,
		"average_duration_ms": summary.AverageDuration.Milliseconds(),
	}

	if run := summary.LastRun; run != nil {
		stats["last_run"] = gin.H{
			"started_at":   run.StartedAt.In(time.Local).Format(time.RFC3339),
			"duration_ms":  run.Duration.Milliseconds(),
			"feeds_total":  run.FeedsTotal,
			"feeds_failed": run.FeedsFailed,
			"fetched":      run.Fetched,
			"excluded":     run.Excluded,
			"duplicates":   run.Duplicates,
			"returned":     run.Returned,
			"error":        run.Error,
		}
	}

	c.JSON(http.StatusOK, stats)
}

// aggregate runs the pipeline for the request and records the run when
// statistics are enabled.
func (h *Handler) aggregate(c *gin.Context) (*feed.Result, error) {
	result, err := h.aggregator.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, feed.ErrNoFeedsAvailable) {
			slog.Error("No feeds available", "error", err)
		} else {
			slog.Error("Aggregation failed", "error", err)
		}
	}

	h.recordRun(c, result, err)

	return result, err
}

func (h *Handler) recordRun(c *gin.Context, result *feed.Result, runErr error) {
	if h.runRepo == nil || result == nil {
		return
	}

	stats := result.Stats
	run := database.Run{
		StartedAt:   stats.StartedAt,
		Duration:    stats.Duration,
		FeedsTotal:  stats.FeedsTotal,
		FeedsFailed: stats.FeedsFailed,
		Fetched:     stats.Fetched,
		Excluded:    stats.Excluded,
		Duplicates:  stats.Duplicates,
		Returned:    stats.Returned,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	if err := h.runRepo.Record(c.Request.Context(), run); err != nil {
		slog.Warn("Failed to record aggregation run", "error", err)
	}
}

func selfLink(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.Path
}
