package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"isilan_app_echo/internal/models"
	"isilan_app_echo/internal/services"
)

const premiumJobsCacheTTL = time.Minute

type JobHandler struct {
	store services.Store
	cache *services.RedisCache // optional
}

func NewJobHandler(store services.Store, cache *services.RedisCache) *JobHandler {
	return &JobHandler{store: store, cache: cache}
}

// ListPremiumJobs returns listings whose boost window is currently
// active, newest boost first. Served from Redis with a short TTL since
// the home page hits this on every load.
func (h *JobHandler) ListPremiumJobs(c echo.Context) error {
	ctx := c.Request().Context()

	fetch := func() ([]models.Job, error) {
		jobs, err := h.store.ListPremiumJobs(ctx)
		if err != nil {
			return nil, err
		}
		now := time.Now().UnixMilli()
		active := make([]models.Job, 0, len(jobs))
		for _, job := range jobs {
			if job.PremiumActive(now) {
				active = append(active, job)
			}
		}
		return active, nil
	}

	var jobs []models.Job
	var err error
	if h.cache != nil {
		jobs, err = services.GetOrSet(h.cache, ctx, services.PremiumJobsCacheKey, premiumJobsCacheTTL, fetch)
	} else {
		jobs, err = fetch()
	}
	if err != nil {
		log.Printf("Failed to list premium jobs: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list premium jobs")
	}

	return c.JSON(http.StatusOK, jobs)
}

// GetJob returns a single listing.
func (h *JobHandler) GetJob(c echo.Context) error {
	jobID := c.Param("id")
	if jobID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing job id")
	}

	job, err := h.store.GetJob(c.Request().Context(), jobID)
	if err != nil {
		log.Printf("Failed to fetch job %s: %v", jobID, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch job")
	}
	if job == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Job not found")
	}

	return c.JSON(http.StatusOK, job)
}
