package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"isilan_app_echo/internal/models"
	"isilan_app_echo/internal/services"
)

// ExpirePremiumJobsTaskDef clears the premium flag on jobs whose boost
// window has lapsed. Scheduled as a recurring task; the frontend also
// filters on premiumEndDate, so a late sweep only affects sorting.
type ExpirePremiumJobsTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *ExpirePremiumJobsTaskDef) TaskID() string {
	return "expire_premium_jobs"
}

// HandleExecution scans premium jobs and downgrades the expired ones.
func (t *ExpirePremiumJobsTaskDef) HandleExecution(ctx context.Context, deps *Deps, task models.ScheduledTask) (map[string]interface{}, error) {
	jobs, err := deps.Store.ListPremiumJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list premium jobs: %w", err)
	}

	now := time.Now().UnixMilli()
	expired := 0
	var failures []string

	for _, job := range jobs {
		if job.PremiumActive(now) {
			continue
		}
		err := deps.Store.UpdateJob(ctx, job.ID, map[string]interface{}{
			"isPremium": false,
			"updatedAt": now,
		})
		if err != nil {
			log.Printf("[Task: expire_premium_jobs] Failed to downgrade job %s: %v", job.ID, err)
			failures = append(failures, job.ID)
			continue
		}
		expired++
	}

	if expired > 0 && deps.Cache != nil {
		if err := deps.Cache.Delete(ctx, services.PremiumJobsCacheKey); err != nil {
			log.Printf("[Task: expire_premium_jobs] Failed to invalidate listing cache: %v", err)
		}
	}

	result := map[string]interface{}{
		"status":  "success",
		"scanned": len(jobs),
		"expired": expired,
	}
	if len(failures) > 0 {
		result["failed_jobs"] = failures
		return result, fmt.Errorf("failed to downgrade %d of %d expired jobs", len(failures), len(failures)+expired)
	}
	return result, nil
}

// ExpirePremiumJobsTask is the singleton instance of ExpirePremiumJobsTaskDef
var ExpirePremiumJobsTask = &ExpirePremiumJobsTaskDef{}
