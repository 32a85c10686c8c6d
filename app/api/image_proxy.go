package api

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/news-comb/app/feed"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	imageAccept      = "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8"
	imageLanguage    = "en-US,en;q=0.9,sq;q=0.8"
	imageCache       = "public, max-age=3600, s-maxage=3600"
	maxRedirects     = 5
)

var errRedirectNotAllowed = errors.New("redirect to a host outside the allow-list")

// ImageProxy relays images from hotlink-protected publishers, presenting a
// browser-like request to the origin.
type ImageProxy struct {
	httpClient   *http.Client
	allowedHosts []string
}

// NewImageProxy copies httpClient so that every redirect hop is checked
// against allowedHosts too.
func NewImageProxy(httpClient *http.Client, allowedHosts []string) *ImageProxy {
	client := *httpClient
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if !allowedSource(req.URL, allowedHosts) {
			return errRedirectNotAllowed
		}
		return nil
	}

	return &ImageProxy{
		httpClient:   &client,
		allowedHosts: allowedHosts,
	}
}

func allowedSource(target *url.URL, allowedHosts []string) bool {
	if target.Scheme != "http" && target.Scheme != "https" {
		return false
	}
	return feed.MatchesHost(target.String(), allowedHosts)
}

func (p *ImageProxy) Handle(c *gin.Context) {
	imageURL := c.Query("url")
	referer := c.Query("referer")

	if imageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image URL is required"})
		return
	}

	target, err := url.Parse(imageURL)
	if err != nil || !allowedSource(target, p.allowedHosts) {
		p.reject(c, imageURL)
		return
	}

	origin := target.Scheme + "://" + target.Host
	referer = cmp.Or(referer, origin+"/")

	req, err := http.NewRequestWithContext(c.Request.Context(), "GET", target.String(), nil)
	if err != nil {
		p.fail(c, imageURL, err)
		return
	}

	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Referer", referer)
	req.Header.Set("Origin", origin)
	req.Header.Set("Accept", imageAccept)
	req.Header.Set("Accept-Language", imageLanguage)

	resp, err := p.httpClient.Do(req)
	if errors.Is(err, errRedirectNotAllowed) {
		p.reject(c, imageURL)
		return
	}
	if err != nil {
		p.fail(c, imageURL, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		slog.Error("Failed to fetch image",
			"url", imageURL,
			"status", resp.StatusCode,
			"referer", referer,
			"response", string(body))

		c.JSON(resp.StatusCode, gin.H{
			"error":   fmt.Sprintf("Failed to fetch image: %s", resp.Status),
			"url":     imageURL,
			"referer": referer,
		})
		return
	}

	contentType := cmp.Or(resp.Header.Get("Content-Type"), "image/jpeg")

	c.DataFromReader(http.StatusOK, resp.ContentLength, contentType, resp.Body, map[string]string{
		"Cache-Control":               imageCache,
		"Access-Control-Allow-Origin": "*",
	})
}

func (p *ImageProxy) reject(c *gin.Context, imageURL string) {
	slog.Warn("Image proxy rejected source", "url", imageURL)
	c.JSON(http.StatusForbidden, gin.H{"error": "Invalid image source"})
}

func (p *ImageProxy) fail(c *gin.Context, imageURL string, err error) {
	slog.Error("Error proxying image", "url", imageURL, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Failed to proxy image",
		"details": err.Error(),
	})
}
