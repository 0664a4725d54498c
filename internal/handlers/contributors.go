package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grenish/contribsvc/internal/github"
	"github.com/grenish/contribsvc/internal/middleware"
	"github.com/grenish/contribsvc/internal/models"
	"github.com/grenish/contribsvc/internal/ratelimit"
	"github.com/grenish/contribsvc/internal/services"
	"github.com/grenish/contribsvc/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Contributor lists change slowly relative to page traffic, so shared
// caches may keep them for an hour and serve stale for another thirty
// minutes while revalidating.
const contributorsCacheControl = "public, s-maxage=3600, stale-while-revalidate=1800"

type ContributorsHandler struct {
	contributorService *services.ContributorService
	limiter            *ratelimit.Limiter
	tokenConfigured    bool
}

func NewContributorsHandler(contributorService *services.ContributorService, limiter *ratelimit.Limiter, tokenConfigured bool) *ContributorsHandler {
	return &ContributorsHandler{
		contributorService: contributorService,
		limiter:            limiter,
		tokenConfigured:    tokenConfigured,
	}
}

// GetContributors handles GET /api/contributors?docPath=<logical path>
func (h *ContributorsHandler) GetContributors(c *gin.Context) {
	// Without a credential every lookup would burn the tiny anonymous
	// quota; answer with an empty cacheable list instead of hitting the API.
	if !h.tokenConfigured {
		logger.Warn("GITHUB_TOKEN not configured, returning empty contributors list")
		c.Header("Cache-Control", contributorsCacheControl)
		c.JSON(http.StatusOK, []*models.Contributor{})
		return
	}

	clientIP := middleware.GetClientIP(c)

	decision, err := h.limiter.Admit(clientIP)
	if err != nil {
		// Fail open: a broken window store must not take the endpoint down
		logger.WithError(err).Error("Rate limit store failure")
		decision = ratelimit.Decision{Admitted: true}
	}
	if !decision.Admitted {
		c.Header("Retry-After", strconv.Itoa(decision.RetryAfterSeconds))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Please try again later."})
		return
	}

	docPath := c.Query("docPath")
	if docPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "docPath parameter is required"})
		return
	}

	contributors, err := h.contributorService.GetContributors(c.Request.Context(), docPath)
	if err != nil {
		h.renderFetchError(c, docPath, err)
		return
	}

	c.Header("Cache-Control", contributorsCacheControl)
	c.JSON(http.StatusOK, contributors)
}

// renderFetchError is the only place upstream error kinds become status
// codes. The local limiter's 429 and the provider's quota 429 stay
// distinguishable by message and logging.
func (h *ContributorsHandler) renderFetchError(c *gin.Context, docPath string, err error) {
	entry := logger.WithFields(logrus.Fields{
		"request_id": middleware.GetRequestID(c),
		"doc_path":   docPath,
	})

	if errors.Is(err, github.ErrQuotaExhausted) {
		entry.WithError(err).Warn("GitHub API quota exhausted")
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "GitHub API rate limit exceeded. Please try again later."})
		return
	}

	// Malformed and transport failures alike: full detail stays in server
	// logs, nothing internal leaks to the caller
	entry.WithError(err).Error("Failed to fetch contributors")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch contributors"})
}
